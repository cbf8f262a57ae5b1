package repository

import (
	"errors"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PresenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

func (r *PresenceRepository) GetByUserID(userID uint) (*models.UserStatus, error) {
	var s models.UserStatus
	err := r.db.Where("user_id = ?", userID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes the presence row for a user, inserting it on first contact.
// Relies on the unique index on user_id; no application lock.
func (r *PresenceRepository) Upsert(s *models.UserStatus) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "last_seen", "socket_id", "is_typing_to", "typing_started_at", "updated_at",
		}),
	}).Create(s).Error
}

// SetStatus updates status and refreshes last_seen (heartbeat path).
func (r *PresenceRepository) SetStatus(userID uint, status string, at time.Time) error {
	res := r.db.Model(&models.UserStatus{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"status": status, "last_seen": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.Upsert(&models.UserStatus{UserID: userID, Status: status, LastSeen: at})
	}
	return nil
}

// MarkOnline records a new transport session for the user.
func (r *PresenceRepository) MarkOnline(userID uint, socketID string, at time.Time) error {
	return r.Upsert(&models.UserStatus{
		UserID:   userID,
		Status:   domain.PresenceOnline,
		LastSeen: at,
		SocketID: &socketID,
	})
}

// MarkOffline demotes the user and clears session and typing state together.
func (r *PresenceRepository) MarkOffline(userID uint, at time.Time) error {
	return r.db.Model(&models.UserStatus{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":            domain.PresenceOffline,
			"last_seen":         at,
			"socket_id":         nil,
			"is_typing_to":      nil,
			"typing_started_at": nil,
		}).Error
}

// SetTyping records whom the user is typing to. Both fields move together.
func (r *PresenceRepository) SetTyping(userID, targetID uint, at time.Time) error {
	return r.db.Model(&models.UserStatus{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_typing_to":      targetID,
			"typing_started_at": at,
			"last_seen":         at,
		}).Error
}

// ClearTyping drops typing state regardless of target.
func (r *PresenceRepository) ClearTyping(userID uint) error {
	return r.db.Model(&models.UserStatus{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_typing_to":      nil,
			"typing_started_at": nil,
		}).Error
}

// Touch refreshes last_seen only, without touching status. Used as the
// heartbeat while a socket stays connected.
func (r *PresenceRepository) Touch(userID uint, at time.Time) error {
	return r.db.Model(&models.UserStatus{}).
		Where("user_id = ?", userID).
		Update("last_seen", at).Error
}

// MarkStaleOffline demotes every non-offline row whose last_seen predates the
// cutoff, clearing session and typing state in the same bulk update.
func (r *PresenceRepository) MarkStaleOffline(staleBefore time.Time) (int64, error) {
	res := r.db.Model(&models.UserStatus{}).
		Where("status <> ? AND last_seen < ?", domain.PresenceOffline, staleBefore).
		Updates(map[string]interface{}{
			"status":            domain.PresenceOffline,
			"socket_id":         nil,
			"is_typing_to":      nil,
			"typing_started_at": nil,
		})
	return res.RowsAffected, res.Error
}

// ClearExpiredTyping clears typing state that started before the cutoff.
func (r *PresenceRepository) ClearExpiredTyping(typingBefore time.Time) (int64, error) {
	res := r.db.Model(&models.UserStatus{}).
		Where("is_typing_to IS NOT NULL AND typing_started_at < ?", typingBefore).
		Updates(map[string]interface{}{
			"is_typing_to":      nil,
			"typing_started_at": nil,
		})
	return res.RowsAffected, res.Error
}

// IsRecordNotFound reports whether err is the store's missing-row error.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
