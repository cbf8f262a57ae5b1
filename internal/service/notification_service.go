package service

import (
	"encoding/json"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
)

// UserBroadcaster is the personal-channel slice of the hub.
type UserBroadcaster interface {
	BroadcastToUser(userID uint, payload interface{})
}

// NotificationService persists a notification row and pushes it to the
// user's live sessions. Socket delivery is best-effort; the row is the
// source of truth.
type NotificationService struct {
	repo *repository.NotificationRepository
	hub  UserBroadcaster
}

func NewNotificationService(repo *repository.NotificationRepository, hub UserBroadcaster) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.BroadcastToUser(userID, map[string]interface{}{
			"type":       domain.EventNotification,
			"id":         n.ID,
			"notif_type": n.Type,
			"title":      n.Title,
			"body":       n.Body,
			"data":       data,
			"created_at": n.CreatedAt,
		})
	}
	return nil
}

func (s *NotificationService) NotifyConnectionRequest(receiverID, connectionID uint, requesterName string) error {
	return s.Notify(receiverID, "CONNECTION_REQUEST", "New connection request",
		requesterName+" wants to connect with you",
		map[string]interface{}{"connection_id": connectionID})
}

func (s *NotificationService) NotifyConnectionAccepted(requesterID, connectionID uint, receiverName string) error {
	return s.Notify(requesterID, "CONNECTION_ACCEPTED", "Connection accepted",
		receiverName+" accepted your connection request",
		map[string]interface{}{"connection_id": connectionID})
}

func (s *NotificationService) NotifyPostLiked(ownerID, postID uint, likerName string) error {
	return s.Notify(ownerID, "POST_LIKED", "New like",
		likerName+" liked your post",
		map[string]interface{}{"post_id": postID})
}

func (s *NotificationService) NotifyPostCommented(ownerID, postID uint, commenterName string) error {
	return s.Notify(ownerID, "POST_COMMENTED", "New comment",
		commenterName+" commented on your post",
		map[string]interface{}{"post_id": postID})
}
