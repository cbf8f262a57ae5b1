package models

import (
	"time"

	"gorm.io/gorm"
)

// Connection is an edge in the social graph. PairLow/PairHigh hold the two
// user ids in ascending order so the unique index covers the unordered pair
// regardless of who sent the request.
type Connection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RequesterID uint           `gorm:"not null;index" json:"requester_id"`
	ReceiverID  uint           `gorm:"not null;index" json:"receiver_id"`
	PairLow     uint           `gorm:"not null;uniqueIndex:idx_connections_pair" json:"-"`
	PairHigh    uint           `gorm:"not null;uniqueIndex:idx_connections_pair" json:"-"`
	Status      string         `gorm:"size:20;not null;index" json:"status"` // PENDING, ACCEPTED, REJECTED
	AcceptedAt  *time.Time     `json:"accepted_at"`
	RejectedAt  *time.Time     `json:"rejected_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
	Receiver  User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (Connection) TableName() string {
	return "connections"
}

// NormalizePair fills PairLow/PairHigh from RequesterID/ReceiverID.
func (c *Connection) NormalizePair() {
	c.PairLow, c.PairHigh = c.RequesterID, c.ReceiverID
	if c.PairLow > c.PairHigh {
		c.PairLow, c.PairHigh = c.PairHigh, c.PairLow
	}
}
