package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two users. Rows are created by send,
// bulk-flipped to read by the read-receipt path, and deleted only by the
// sender; nothing else mutates them.
type Message struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SenderID    uint           `gorm:"not null;index:idx_messages_pair" json:"sender_id"`
	ReceiverID  uint           `gorm:"not null;index:idx_messages_pair" json:"receiver_id"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	MessageType string         `gorm:"size:10;not null;default:'text'" json:"message_type"` // text, image, file, link
	IsRead      bool           `gorm:"default:false;index" json:"is_read"`
	ReadAt      *time.Time     `json:"read_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
