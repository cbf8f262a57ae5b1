package repository

import (
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"gorm.io/gorm"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(o *models.OTPCode) error {
	return r.db.Create(o).Error
}

// LatestActive returns the newest unconsumed, unexpired code for a phone.
func (r *OTPRepository) LatestActive(phone string, now time.Time) (*models.OTPCode, error) {
	var o models.OTPCode
	err := r.db.Where("phone = ? AND consumed_at IS NULL AND expires_at > ?", phone, now).
		Order("created_at DESC").First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// LastIssuedAt returns when a code was last issued for the phone, consumed or
// not. Drives the resend cooldown.
func (r *OTPRepository) LastIssuedAt(phone string) (*time.Time, error) {
	var o models.OTPCode
	err := r.db.Where("phone = ?", phone).Order("created_at DESC").First(&o).Error
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	t := o.CreatedAt
	return &t, nil
}

func (r *OTPRepository) Consume(id uint, at time.Time) error {
	return r.db.Model(&models.OTPCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at).Error
}

// PurgeExpired deletes codes that expired before the cutoff.
func (r *OTPRepository) PurgeExpired(before time.Time) error {
	return r.db.Unscoped().
		Where("expires_at < ?", before).
		Delete(&models.OTPCode{}).Error
}
