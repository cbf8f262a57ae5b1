package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStatus is the durable presence record: one row per user, upserted on
// every connect, heartbeat, or status change and swept to OFFLINE when stale.
type UserStatus struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Status          string         `gorm:"size:20;not null;index;default:'OFFLINE'" json:"status"` // ONLINE, AWAY, BUSY, OFFLINE
	LastSeen        time.Time      `gorm:"not null;index" json:"last_seen"`
	SocketID        *string        `gorm:"size:64" json:"-"` // opaque transport session ref, nil when offline
	IsTypingTo      *uint          `gorm:"index" json:"-"`   // set together with TypingStartedAt, never alone
	TypingStartedAt *time.Time     `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserStatus) TableName() string {
	return "user_statuses"
}
