package repository

import (
	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(p *models.Post) error {
	return r.db.Create(p).Error
}

func (r *PostRepository) GetByID(id uint) (*models.Post, error) {
	var p models.Post
	err := r.db.Preload("User").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// ListFeed returns posts authored by any of authorIDs, newest first.
func (r *PostRepository) ListFeed(authorIDs []uint, limit, offset int) ([]models.Post, error) {
	var list []models.Post
	err := r.db.Where("user_id IN ?", authorIDs).
		Preload("User").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) ListByUser(userID uint, limit, offset int) ([]models.Post, error) {
	var list []models.Post
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// Like is idempotent at the store level: the unique (post,user) index turns a
// double-like into a duplicate-key error the caller may ignore.
func (r *PostRepository) Like(postID, userID uint) error {
	return r.db.Create(&models.PostLike{PostID: postID, UserID: userID}).Error
}

func (r *PostRepository) Unlike(postID, userID uint) error {
	return r.db.Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{}).Error
}

func (r *PostRepository) LikeCount(postID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&c).Error
	return c, err
}

func (r *PostRepository) CreateComment(c *models.PostComment) error {
	return r.db.Create(c).Error
}

func (r *PostRepository) ListComments(postID uint, limit, offset int) ([]models.PostComment, error) {
	var list []models.PostComment
	err := r.db.Where("post_id = ?", postID).
		Preload("User").
		Order("created_at ASC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
