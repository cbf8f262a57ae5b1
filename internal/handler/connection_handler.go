package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/middleware"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	repo     *repository.ConnectionRepository
	userRepo *repository.UserRepository
	notifSvc *service.NotificationService
}

func NewConnectionHandler(repo *repository.ConnectionRepository, userRepo *repository.UserRepository, notifSvc *service.NotificationService) *ConnectionHandler {
	return &ConnectionHandler{repo: repo, userRepo: userRepo, notifSvc: notifSvc}
}

// Create handles POST /connections: send a connection request.
func (h *ConnectionHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ReceiverID uint `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReceiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot connect with yourself"})
		return
	}
	receiver, err := h.userRepo.GetByID(req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if existing, err := h.repo.GetByPair(userID, req.ReceiverID); err == nil {
		if existing.Status == domain.ConnectionRejected {
			// a rejected edge may be retried: reset it to pending from this side
			existing.RequesterID = userID
			existing.ReceiverID = req.ReceiverID
			existing.Status = domain.ConnectionPending
			existing.RejectedAt = nil
			if err := h.repo.Update(existing); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
				return
			}
			c.JSON(http.StatusOK, existing)
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "connection already exists"})
		return
	}
	conn := &models.Connection{
		RequesterID: userID,
		ReceiverID:  req.ReceiverID,
		Status:      domain.ConnectionPending,
	}
	if err := h.repo.Create(conn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	if requester, err := h.userRepo.GetByID(userID); err == nil {
		_ = h.notifSvc.NotifyConnectionRequest(receiver.ID, conn.ID, requester.Name())
	}
	c.JSON(http.StatusCreated, conn)
}

func (h *ConnectionHandler) decide(c *gin.Context, status string) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	conn, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return
	}
	if conn.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can decide"})
		return
	}
	if conn.Status != domain.ConnectionPending {
		c.JSON(http.StatusConflict, gin.H{"error": "request already decided"})
		return
	}
	if err := h.repo.UpdateStatus(conn.ID, status, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if status == domain.ConnectionAccepted {
		if receiver, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyConnectionAccepted(conn.RequesterID, conn.ID, receiver.Name())
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// Accept handles POST /connections/:id/accept.
func (h *ConnectionHandler) Accept(c *gin.Context) {
	h.decide(c, domain.ConnectionAccepted)
}

// Reject handles POST /connections/:id/reject.
func (h *ConnectionHandler) Reject(c *gin.Context) {
	h.decide(c, domain.ConnectionRejected)
}

// ListPending handles GET /me/connections/pending: incoming requests.
func (h *ConnectionHandler) ListPending(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := parseLimitOffset(c)
	list, err := h.repo.ListPendingForReceiver(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": list})
}

// ListAccepted handles GET /me/connections.
func (h *ConnectionHandler) ListAccepted(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := parseLimitOffset(c)
	list, err := h.repo.ListAccepted(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": list})
}

// Remove handles DELETE /connections/:id: either party may sever the edge.
func (h *ConnectionHandler) Remove(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	conn, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return
	}
	if conn.RequesterID != userID && conn.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.repo.Delete(conn.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
