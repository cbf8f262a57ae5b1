package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/ws"

	"gorm.io/gorm"
)

var (
	ErrSelfTarget      = errors.New("cannot target yourself")
	ErrEmptyContent    = errors.New("message content is required")
	ErrBadMessageType  = errors.New("unsupported message type")
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotConnected    = errors.New("users are not connected")
	ErrNotSender       = errors.New("only the sender can delete a message")
)

// MessageStore is the slice of the message repository the chat service needs.
type MessageStore interface {
	Create(m *models.Message) error
	GetByID(id uint) (*models.Message, error)
	Delete(id uint) error
	ListBetween(userA, userB uint, limit, offset int) ([]models.Message, error)
	ListBefore(userA, userB, beforeID uint, limit int) ([]models.Message, error)
	MarkConversationRead(senderID, receiverID uint, at time.Time) (int64, error)
	ListConversations(userID uint) ([]repository.ConversationSummary, error)
}

type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

type ConnectionStore interface {
	AreConnected(userA, userB uint) (bool, error)
}

type PresenceStore interface {
	SetTyping(userID, targetID uint, at time.Time) error
	ClearTyping(userID uint) error
}

// Broadcaster is the outbound transport: room and personal-channel fan-out.
// Delivery is best-effort; implementations must never return an error to the
// message path.
type Broadcaster interface {
	BroadcastToRoom(room string, payload interface{})
	BroadcastToRoomExcept(room string, exceptUserID uint, payload interface{})
	BroadcastToUser(userID uint, payload interface{})
}

// ChatService owns the message lifecycle: send, read receipts, deletion,
// history, and the ephemeral typing indicators. Persistence is the source of
// truth; every broadcast is best-effort on top of it.
type ChatService struct {
	messages    MessageStore
	users       UserStore
	connections ConnectionStore
	presence    PresenceStore
	hub         Broadcaster
}

func NewChatService(messages MessageStore, users UserStore, connections ConnectionStore, presence PresenceStore, hub Broadcaster) *ChatService {
	return &ChatService{
		messages:    messages,
		users:       users,
		connections: connections,
		presence:    presence,
		hub:         hub,
	}
}

// Send validates, persists and fans out a direct message. The persisted row
// is authoritative: a receiver with no live session still sees the message in
// history later.
func (s *ChatService) Send(senderID, receiverID uint, content, messageType string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, ErrSelfTarget
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(messageType) {
		return nil, ErrBadMessageType
	}
	sender, err := s.users.GetByID(senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, err := s.users.GetByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	connected, err := s.connections.AreConnected(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, ErrNotConnected
	}

	m := &models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: messageType,
	}
	if err := s.messages.Create(m); err != nil {
		return nil, err
	}
	// sending supersedes any typing indicator toward this receiver
	if err := s.presence.ClearTyping(senderID); err != nil {
		log.Printf("[chat] clear typing user=%d: %v", senderID, err)
	}

	payload := map[string]interface{}{
		"type":         domain.EventNewMessage,
		"message_id":   m.ID,
		"sender_id":    m.SenderID,
		"sender_name":  sender.Name(),
		"receiver_id":  m.ReceiverID,
		"content":      m.Content,
		"message_type": m.MessageType,
		"created_at":   m.CreatedAt,
	}
	room := ws.RoomName(senderID, receiverID)
	s.hub.BroadcastToRoom(room, payload)
	// also hit the receiver's personal channel for sessions that have not
	// joined the room yet
	s.hub.BroadcastToUser(receiverID, payload)
	return m, nil
}

// MarkRead bulk-flips everything otherUserID sent to readerID that is still
// unread, then tells the other user. The event fires even when zero rows
// changed; a repeated call is harmless.
func (s *ChatService) MarkRead(readerID, otherUserID uint) (int64, error) {
	if readerID == otherUserID {
		return 0, ErrSelfTarget
	}
	now := time.Now()
	count, err := s.messages.MarkConversationRead(otherUserID, readerID, now)
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastToUser(otherUserID, map[string]interface{}{
		"type":      domain.EventMessagesRead,
		"read_by":   readerID,
		"timestamp": now,
	})
	return count, nil
}

// DeleteMessage removes a message; only its sender may do so. The room is
// told which message went away.
func (s *ChatService) DeleteMessage(requesterID, messageID uint) error {
	m, err := s.messages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if m.SenderID != requesterID {
		return ErrNotSender
	}
	if err := s.messages.Delete(messageID); err != nil {
		return err
	}
	s.hub.BroadcastToRoom(ws.RoomName(m.SenderID, m.ReceiverID), map[string]interface{}{
		"type":       domain.EventMessageDeleted,
		"message_id": messageID,
		"deleted_by": requesterID,
	})
	return nil
}

// GetConversation returns the pair's messages oldest-first. Internally the
// fetch is newest-first and reversed. A before_id cursor wins over offset
// when both are supplied.
func (s *ChatService) GetConversation(userID, otherUserID uint, limit, offset int, beforeID uint) ([]models.Message, error) {
	if userID == otherUserID {
		return nil, ErrSelfTarget
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var (
		list []models.Message
		err  error
	)
	if beforeID > 0 {
		list, err = s.messages.ListBefore(userID, otherUserID, beforeID, limit)
	} else {
		list, err = s.messages.ListBetween(userID, otherUserID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// ListConversations returns the latest message per peer with unread counts.
func (s *ChatService) ListConversations(userID uint) ([]repository.ConversationSummary, error) {
	return s.messages.ListConversations(userID)
}

// StartTyping records typing state and tells the room, skipping the typist's
// own sessions.
func (s *ChatService) StartTyping(senderID, receiverID uint) error {
	if senderID == receiverID {
		return ErrSelfTarget
	}
	if err := s.presence.SetTyping(senderID, receiverID, time.Now()); err != nil {
		return err
	}
	s.hub.BroadcastToRoomExcept(ws.RoomName(senderID, receiverID), senderID, map[string]interface{}{
		"type":      domain.EventUserTyping,
		"user_id":   senderID,
		"is_typing": true,
	})
	return nil
}

// StopTyping clears typing state and tells the room. If the client never
// calls it the presence sweeper clears the state silently; clients are
// expected to age out indicators they have not heard a stop for.
func (s *ChatService) StopTyping(senderID, receiverID uint) error {
	if senderID == receiverID {
		return ErrSelfTarget
	}
	if err := s.presence.ClearTyping(senderID); err != nil {
		return err
	}
	s.hub.BroadcastToRoomExcept(ws.RoomName(senderID, receiverID), senderID, map[string]interface{}{
		"type":      domain.EventUserTyping,
		"user_id":   senderID,
		"is_typing": false,
	})
	return nil
}
