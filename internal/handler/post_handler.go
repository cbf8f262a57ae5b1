package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/biruk-77/bysell-backend-sub000/internal/middleware"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/service"
	"github.com/biruk-77/bysell-backend-sub000/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	repo     *repository.PostRepository
	connRepo *repository.ConnectionRepository
	userRepo *repository.UserRepository
	notifSvc *service.NotificationService
	cloud    cloudinary.Client
}

func NewPostHandler(repo *repository.PostRepository, connRepo *repository.ConnectionRepository, userRepo *repository.UserRepository, notifSvc *service.NotificationService, cloud cloudinary.Client) *PostHandler {
	return &PostHandler{repo: repo, connRepo: connRepo, userRepo: userRepo, notifSvc: notifSvc, cloud: cloud}
}

// Create handles POST /posts. Multipart: content (required), image (optional).
func (h *PostHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	content := strings.TrimSpace(c.PostForm("content"))
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	post := &models.Post{UserID: userID, Content: content}
	if file, err := c.FormFile("image"); err == nil {
		if h.cloud == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image upload not configured"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		defer f.Close()
		url, _, err := h.cloud.UploadImage(c.Request.Context(), f, "posts", uuid.NewString())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		post.ImageURL = url
	}
	if err := h.repo.Create(post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Feed handles GET /posts/feed: own posts plus accepted connections'.
func (h *PostHandler) Feed(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := parseLimitOffset(c)
	peers, err := h.connRepo.AcceptedPeerIDs(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed failed"})
		return
	}
	authors := append(peers, userID)
	list, err := h.repo.ListFeed(authors, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": list})
}

// ListByUser handles GET /users/:id/posts.
func (h *PostHandler) ListByUser(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	limit, offset := parseLimitOffset(c)
	list, err := h.repo.ListByUser(uint(id), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": list})
}

// Get handles GET /posts/:id.
func (h *PostHandler) Get(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	post, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	likes, _ := h.repo.LikeCount(post.ID)
	c.JSON(http.StatusOK, gin.H{"post": post, "like_count": likes})
}

// Delete handles DELETE /posts/:id: owner only.
func (h *PostHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	post, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if post.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can delete"})
		return
	}
	if err := h.repo.Delete(post.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if post.ImageURL != "" && h.cloud != nil {
		if err := h.cloud.DeleteByURL(c.Request.Context(), post.ImageURL); err != nil {
			// the row is gone; a dangling asset is cleanup debt, not a failure
			log.Printf("[posts] image cleanup for post %d: %v", post.ID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Like handles POST /posts/:id/like. A second like is a no-op.
func (h *PostHandler) Like(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	post, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err := h.repo.Like(post.ID, userID); err == nil && post.UserID != userID {
		if liker, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyPostLiked(post.UserID, post.ID, liker.Name())
		}
	}
	likes, _ := h.repo.LikeCount(post.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "like_count": likes})
}

// Unlike handles DELETE /posts/:id/like.
func (h *PostHandler) Unlike(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.Unlike(uint(id), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlike failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Comment handles POST /posts/:id/comments.
func (h *PostHandler) Comment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	comment := &models.PostComment{PostID: post.ID, UserID: userID, Content: strings.TrimSpace(req.Content)}
	if comment.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if err := h.repo.CreateComment(comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment failed"})
		return
	}
	if post.UserID != userID {
		if commenter, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyPostCommented(post.UserID, post.ID, commenter.Name())
		}
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /posts/:id/comments.
func (h *PostHandler) ListComments(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	limit, offset := parseLimitOffset(c)
	list, err := h.repo.ListComments(uint(id), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}
