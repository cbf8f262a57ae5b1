package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/biruk-77/bysell-backend-sub000/internal/middleware"
	"github.com/biruk-77/bysell-backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler is the HTTP side of messaging; it calls the same ChatService
// operations the websocket path does.
type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func chatErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrSelfTarget),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrBadMessageType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotConnected),
		errors.Is(err, service.ErrNotSender):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// GetConversation handles GET /chat/conversation/:other_user_id.
// Query: limit, offset, before_id. Messages come back oldest-first; before_id
// wins over offset when both are present.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("other_user_id"), 10, 64)
	if otherID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid other_user_id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	beforeID, _ := strconv.ParseUint(c.DefaultQuery("before_id", "0"), 10, 64)

	list, err := h.svc.GetConversation(userID, uint(otherID), limit, offset, uint(beforeID))
	if err != nil {
		status := chatErrStatus(err)
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "list failed"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// ListConversations handles GET /chat/conversations: latest message per
// peer with unread counts.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.svc.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// MarkRead handles PUT /chat/read/:other_user_id.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("other_user_id"), 10, 64)
	if otherID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid other_user_id"})
		return
	}
	count, err := h.svc.MarkRead(userID, uint(otherID))
	if err != nil {
		status := chatErrStatus(err)
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "update failed"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// DeleteMessage handles DELETE /chat/messages/:message_id. Only the sender
// may delete.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	messageID, _ := strconv.ParseUint(c.Param("message_id"), 10, 64)
	if messageID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message_id"})
		return
	}
	if err := h.svc.DeleteMessage(userID, uint(messageID)); err != nil {
		status := chatErrStatus(err)
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "delete failed"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
