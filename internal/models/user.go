package models

import (
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Username        string         `gorm:"uniqueIndex;size:64;not null;default:''" json:"username"`
	DisplayName     string         `gorm:"size:128;not null;default:''" json:"display_name"`
	Phone           string         `gorm:"uniqueIndex;size:20" json:"phone"`
	Email           string         `gorm:"index;size:255" json:"email"`
	PasswordHash    string         `gorm:"size:255" json:"-"`
	Role            string         `gorm:"size:20;not null;index;default:'USER'" json:"role"` // USER | ADMIN
	GoogleID        *string        `gorm:"uniqueIndex;size:255" json:"-"`                     // nil for phone/email signups
	AvatarURL       string         `gorm:"size:512" json:"avatar_url"`
	Bio             string         `gorm:"type:text" json:"bio"`
	PhoneVerifiedAt *time.Time     `json:"phone_verified_at"`
	BannedAt        *time.Time     `gorm:"index" json:"banned_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Status *UserStatus `gorm:"foreignKey:UserID" json:"status,omitempty"`
}

func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
func (u *User) IsBanned() bool { return u.BannedAt != nil }

// Name returns the display name, falling back to username for accounts
// that never set one.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
