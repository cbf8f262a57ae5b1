package repository

import (
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(m *models.Message) error {
	return r.db.Create(m).Error
}

func (r *MessageRepository) GetByID(id uint) (*models.Message, error) {
	var m models.Message
	err := r.db.First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Message{}, id).Error
}

// ListBetween returns messages exchanged by the pair, newest first.
func (r *MessageRepository) ListBetween(userA, userB uint, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// ListBefore returns messages exchanged by the pair older than beforeID,
// newest first. Used for cursor pagination.
func (r *MessageRepository) ListBefore(userA, userB, beforeID uint, limit int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND id < ?",
			userA, userB, userB, userA, beforeID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// MarkConversationRead flips every unread message from senderID to receiverID
// in one bulk update and returns how many rows changed.
func (r *MessageRepository) MarkConversationRead(senderID, receiverID uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// ConversationSummary is one row of the conversations overview: the latest
// message exchanged with a peer plus the unread count from that peer.
type ConversationSummary struct {
	PeerID          uint      `json:"peer_id"`
	PeerName        string    `json:"peer_name"`
	PeerAvatarURL   string    `json:"peer_avatar_url"`
	LastMessageID   uint      `json:"last_message_id"`
	LastContent     string    `json:"last_content"`
	LastMessageType string    `json:"last_message_type"`
	LastSenderID    uint      `json:"last_sender_id"`
	LastCreatedAt   time.Time `json:"last_created_at"`
	UnreadCount     int64     `json:"unread_count"`
}

// ListConversations groups the user's messages by peer and returns the latest
// message per peer with unread counts, most recent conversation first.
func (r *MessageRepository) ListConversations(userID uint) ([]ConversationSummary, error) {
	var list []ConversationSummary
	err := r.db.Raw(`
		SELECT
			u.id                                        AS peer_id,
			COALESCE(NULLIF(u.display_name, ''), u.username) AS peer_name,
			u.avatar_url                                AS peer_avatar_url,
			m.id                                        AS last_message_id,
			m.content                                   AS last_content,
			m.message_type                              AS last_message_type,
			m.sender_id                                 AS last_sender_id,
			m.created_at                                AS last_created_at,
			(SELECT COUNT(*) FROM messages x
				WHERE x.sender_id = u.id AND x.receiver_id = ?
				  AND x.is_read = 0 AND x.deleted_at IS NULL) AS unread_count
		FROM messages m
		JOIN users u ON u.id = IF(m.sender_id = ?, m.receiver_id, m.sender_id)
		WHERE m.id IN (
			SELECT MAX(id) FROM messages
			WHERE (sender_id = ? OR receiver_id = ?) AND deleted_at IS NULL
			GROUP BY LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id)
		) AND m.deleted_at IS NULL
		ORDER BY m.created_at DESC`,
		userID, userID, userID, userID).Scan(&list).Error
	return list, err
}
