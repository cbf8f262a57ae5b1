package repository

import (
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"gorm.io/gorm"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Create(c *models.Connection) error {
	c.NormalizePair()
	return r.db.Create(c).Error
}

func (r *ConnectionRepository) Update(c *models.Connection) error {
	return r.db.Save(c).Error
}

func (r *ConnectionRepository) GetByID(id uint) (*models.Connection, error) {
	var c models.Connection
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByPair finds the edge between two users regardless of direction.
func (r *ConnectionRepository) GetByPair(userA, userB uint) (*models.Connection, error) {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}
	var c models.Connection
	err := r.db.Where("pair_low = ? AND pair_high = ?", low, high).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AreConnected reports whether the pair has an ACCEPTED connection. This is
// the gate every message send path goes through.
func (r *ConnectionRepository) AreConnected(userA, userB uint) (bool, error) {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}
	var count int64
	err := r.db.Model(&models.Connection{}).
		Where("pair_low = ? AND pair_high = ? AND status = ?", low, high, domain.ConnectionAccepted).
		Count(&count).Error
	return count > 0, err
}

func (r *ConnectionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Connection{}, id).Error
}

// ListPendingForReceiver returns incoming requests awaiting a decision.
func (r *ConnectionRepository) ListPendingForReceiver(userID uint, limit, offset int) ([]models.Connection, error) {
	var list []models.Connection
	err := r.db.Where("receiver_id = ? AND status = ?", userID, domain.ConnectionPending).
		Preload("Requester").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// ListAccepted returns the user's accepted connections, either side.
func (r *ConnectionRepository) ListAccepted(userID uint, limit, offset int) ([]models.Connection, error) {
	var list []models.Connection
	err := r.db.Where("(requester_id = ? OR receiver_id = ?) AND status = ?",
		userID, userID, domain.ConnectionAccepted).
		Preload("Requester").Preload("Receiver").
		Order("updated_at DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// AcceptedPeerIDs returns the ids of everyone the user is connected with.
// Used to scope the post feed.
func (r *ConnectionRepository) AcceptedPeerIDs(userID uint) ([]uint, error) {
	var list []models.Connection
	err := r.db.Select("requester_id", "receiver_id").
		Where("(requester_id = ? OR receiver_id = ?) AND status = ?",
			userID, userID, domain.ConnectionAccepted).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	peers := make([]uint, 0, len(list))
	for _, c := range list {
		if c.RequesterID == userID {
			peers = append(peers, c.ReceiverID)
		} else {
			peers = append(peers, c.RequesterID)
		}
	}
	return peers, nil
}

// UpdateStatus transitions the connection and stamps the decision time.
func (r *ConnectionRepository) UpdateStatus(id uint, status string, at time.Time) error {
	updates := map[string]interface{}{"status": status}
	switch status {
	case domain.ConnectionAccepted:
		updates["accepted_at"] = at
	case domain.ConnectionRejected:
		updates["rejected_at"] = at
	}
	return r.db.Model(&models.Connection{}).Where("id = ?", id).Updates(updates).Error
}
