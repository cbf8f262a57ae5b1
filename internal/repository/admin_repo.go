package repository

import (
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

type DashboardStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalMessages    int64 `json:"total_messages"`
	TotalPosts       int64 `json:"total_posts"`
	TotalConnections int64 `json:"total_connections"`
	OnlineNow        int64 `json:"online_now"`
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	if err := r.db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Message{}).Count(&s.TotalMessages).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Post{}).Count(&s.TotalPosts).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Connection{}).Where("status = ?", domain.ConnectionAccepted).Count(&s.TotalConnections).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.UserStatus{}).Where("status <> ?", domain.PresenceOffline).Count(&s.OnlineNow).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListUsers filters by username/display name/phone and role, paginated.
func (r *AdminRepository) ListUsers(search, role string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("username LIKE ? OR display_name LIKE ? OR phone LIKE ?", like, like, like)
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Preload("Status").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&users).Error
	return users, total, err
}

func (r *AdminRepository) GetUserByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Status").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminRepository) SetBanned(userID uint, banned bool) error {
	var val interface{}
	if banned {
		val = time.Now()
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("banned_at", val).Error
}

type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// MessageVolumeByDay returns message counts per day for the trailing window.
func (r *AdminRepository) MessageVolumeByDay(days int) ([]DailyCount, error) {
	since := time.Now().AddDate(0, 0, -days)
	var list []DailyCount
	err := r.db.Model(&models.Message{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&list).Error
	return list, err
}
