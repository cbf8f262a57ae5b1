package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminRepo *repository.AdminRepository
	authSvc   *service.AuthService
}

func NewAdminHandler(adminRepo *repository.AdminRepository, authSvc *service.AuthService) *AdminHandler {
	return &AdminHandler{adminRepo: adminRepo, authSvc: authSvc}
}

// Login handles POST /admin/login: password login, admin role required.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.authSvc.Login(req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBanned) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if u.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Dashboard handles GET /admin/dashboard: overview stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /admin/users with search/role filter and pagination.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	search := c.Query("search")
	role := c.Query("role")
	page, limit := parsePagination(c)
	users, total, err := h.adminRepo.ListUsers(search, role, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// GetUser handles GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	u, err := h.adminRepo.GetUserByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// SetBan handles PATCH /admin/users/:id/ban with {"banned": bool}.
func (h *AdminHandler) SetBan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Banned *bool `json:"banned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.adminRepo.SetBanned(uint(id), *req.Banned); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "banned": *req.Banned})
}

// MessageVolume handles GET /admin/stats/messages?days=30.
func (h *AdminHandler) MessageVolume(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	list, err := h.adminRepo.MessageVolumeByDay(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "days": days})
}
