package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/middleware"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/ws"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	repo *repository.PresenceRepository
	hub  *ws.Hub
}

func NewPresenceHandler(repo *repository.PresenceRepository, hub *ws.Hub) *PresenceHandler {
	return &PresenceHandler{repo: repo, hub: hub}
}

// SetPresence handles PATCH /me/presence: the HTTP heartbeat. It refreshes
// last_seen and broadcasts the status change to all live sessions.
func (h *PresenceHandler) SetPresence(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Status string `json:"status" binding:"required,oneof=ONLINE AWAY BUSY OFFLINE"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.SetStatus(userID, req.Status, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.hub.BroadcastAll(map[string]interface{}{
		"type":    domain.EventUserStatusChanged,
		"user_id": userID,
		"status":  req.Status,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}

// GetMyPresence handles GET /me/presence.
func (h *PresenceHandler) GetMyPresence(c *gin.Context) {
	userID := middleware.GetUserID(c)
	s, err := h.repo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": domain.PresenceOffline})
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetUserPresence handles GET /users/:id/presence: another user's status
// plus a live-session hint from the registry.
func (h *PresenceHandler) GetUserPresence(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s, err := h.repo.GetByUserID(uint(id))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": domain.PresenceOffline, "connected": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    s.Status,
		"last_seen": s.LastSeen,
		"connected": h.hub.IsOnline(uint(id)),
	})
}
