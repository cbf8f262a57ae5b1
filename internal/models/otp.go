package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPCode stores a bcrypt hash of a one-time login code. The plain code only
// ever travels over SMS; rows are consumed on first successful verify.
type OTPCode struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Phone      string         `gorm:"size:20;not null;index" json:"phone"`
	CodeHash   string         `gorm:"size:255;not null" json:"-"`
	Reference  string         `gorm:"size:64;index" json:"reference"`
	ExpiresAt  time.Time      `gorm:"not null;index" json:"expires_at"`
	ConsumedAt *time.Time     `json:"consumed_at"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}
