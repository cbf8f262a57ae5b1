package database

import (
	"log"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/config"
	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserStatus{},
		&models.Message{},
		&models.Connection{},
		&models.Post{},
		&models.PostLike{},
		&models.PostComment{},
		&models.Notification{},
		&models.OTPCode{},
	)
}

// SeedAdmin creates the admin account on first boot if it does not exist.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password hash failed: %v", err)
		return
	}
	now := time.Now()
	admin := &models.User{
		Username:        "admin",
		DisplayName:     "Administrator",
		Phone:           cfg.Phone,
		PasswordHash:    string(hash),
		Role:            domain.RoleAdmin,
		PhoneVerifiedAt: &now,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[seed] create admin failed: %v", err)
		return
	}
	log.Printf("[seed] admin account created (phone=%s)", cfg.Phone)
}
