package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/biruk-77/bysell-backend-sub000/internal/middleware"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MeHandler struct {
	userRepo *repository.UserRepository
	cloud    cloudinary.Client
}

func NewMeHandler(userRepo *repository.UserRepository, cloud cloudinary.Client) *MeHandler {
	return &MeHandler{userRepo: userRepo, cloud: cloud}
}

// GetProfile handles GET /me/profile.
func (h *MeHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateProfile handles PATCH /me/profile.
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Username    *string `json:"username" binding:"omitempty,min=3,max=30"`
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		Email       *string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.Username != nil && *req.Username != u.Username {
		if existing, err := h.userRepo.GetByUsername(*req.Username); err == nil && existing.ID != userID {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		u.Username = *req.Username
	}
	if req.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// UploadAvatar handles POST /me/avatar. Multipart: image.
func (h *MeHandler) UploadAvatar(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image upload not configured"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}
	defer f.Close()
	url, thumb, err := h.cloud.UploadImage(c.Request.Context(), f, "avatars", uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	previous := u.AvatarURL
	u.AvatarURL = url
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if previous != "" && previous != url {
		if err := h.cloud.DeleteByURL(c.Request.Context(), previous); err != nil {
			log.Printf("[me] old avatar cleanup user=%d: %v", userID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url, "thumbnail_url": thumb})
}

// SearchUsers handles GET /users/search?q=.
func (h *MeHandler) SearchUsers(c *gin.Context) {
	limit, offset := parseLimitOffset(c)
	users, total, err := h.userRepo.Search(c.Query("q"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// GetUser handles GET /users/:id: a public profile view.
func (h *MeHandler) GetUser(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	u, err := h.userRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"avatar_url":   u.AvatarURL,
		"bio":          u.Bio,
		"created_at":   u.CreatedAt,
	})
}
