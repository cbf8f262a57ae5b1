package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/config"
	"github.com/biruk-77/bysell-backend-sub000/internal/auth"
	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"
	"github.com/biruk-77/bysell-backend-sub000/pkg/sms"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrOTPCooldown  = errors.New("code requested too recently")
	ErrOTPInvalid   = errors.New("invalid or expired code")
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrBanned       = errors.New("account is banned")
)

// AuthUserStore is the slice of the user repository auth needs.
type AuthUserStore interface {
	Create(u *models.User) error
	Update(u *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
}

type OTPStore interface {
	Create(o *models.OTPCode) error
	LatestActive(phone string, now time.Time) (*models.OTPCode, error)
	LastIssuedAt(phone string) (*time.Time, error)
	Consume(id uint, at time.Time) error
}

// AuthService issues OTP login codes over SMS, verifies them, and mints JWT
// pairs. Password login is kept for the admin panel.
type AuthService struct {
	cfg   *config.Config
	users AuthUserStore
	otps  OTPStore
	sms   sms.Sender
}

func NewAuthService(cfg *config.Config, users AuthUserStore, otps OTPStore, sender sms.Sender) *AuthService {
	return &AuthService{cfg: cfg, users: users, otps: otps, sms: sender}
}

func validPhone(phone string) bool {
	if !strings.HasPrefix(phone, "+") || len(phone) < 8 || len(phone) > 16 {
		return false
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *AuthService) generateCode() (string, error) {
	n := s.cfg.OTP.CodeLength
	if n <= 0 {
		n = 6
	}
	code := make([]byte, n)
	for i := range code {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + d.Int64())
	}
	return string(code), nil
}

// RequestOTP issues a fresh login code for the phone and sends it over SMS.
// Returns an opaque reference the client can quote in support requests.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) (string, error) {
	if !validPhone(phone) {
		return "", ErrInvalidPhone
	}
	last, err := s.otps.LastIssuedAt(phone)
	if err != nil {
		return "", err
	}
	if last != nil && time.Since(*last) < s.cfg.OTP.ResendCooldown {
		return "", ErrOTPCooldown
	}
	code, err := s.generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	ref := uuid.NewString()
	if err := s.otps.Create(&models.OTPCode{
		Phone:     phone,
		CodeHash:  string(hash),
		Reference: ref,
		ExpiresAt: time.Now().Add(s.cfg.OTP.Expiry),
	}); err != nil {
		return "", err
	}
	msg := fmt.Sprintf("Your login code is %s. It expires in %d minutes.",
		code, int(s.cfg.OTP.Expiry.Minutes()))
	if err := s.sms.Send(ctx, phone, msg); err != nil {
		// the row already exists; the client can retry delivery via resend
		log.Printf("[auth] sms delivery to %s failed: %v", phone, err)
	}
	return ref, nil
}

// VerifyOTP checks the code, consumes it, and finds or creates the account.
func (s *AuthService) VerifyOTP(phone, code string) (*models.User, string, string, error) {
	if !validPhone(phone) {
		return nil, "", "", ErrInvalidPhone
	}
	now := time.Now()
	o, err := s.otps.LatestActive(phone, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrOTPInvalid
		}
		return nil, "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(code)) != nil {
		return nil, "", "", ErrOTPInvalid
	}
	if err := s.otps.Consume(o.ID, now); err != nil {
		return nil, "", "", err
	}
	u, err := s.users.GetByPhone(phone)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", err
		}
		u = &models.User{
			Username:        fmt.Sprintf("user_%s", strings.TrimPrefix(phone, "+")),
			Phone:           phone,
			Role:            domain.RoleUser,
			PhoneVerifiedAt: &now,
		}
		if err := s.users.Create(u); err != nil {
			return nil, "", "", err
		}
	}
	if u.IsBanned() {
		return nil, "", "", ErrBanned
	}
	if u.PhoneVerifiedAt == nil {
		u.PhoneVerifiedAt = &now
		if err := s.users.Update(u); err != nil {
			return nil, "", "", err
		}
	}
	access, refresh, err := s.issueTokens(u)
	return u, access, refresh, err
}

// Login is the password path, used by the admin panel.
func (s *AuthService) Login(phone, password string) (*models.User, string, string, error) {
	u, err := s.users.GetByPhone(phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	if u.IsBanned() {
		return nil, "", "", ErrBanned
	}
	access, refresh, err := s.issueTokens(u)
	return u, access, refresh, err
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	if u.IsBanned() {
		return nil, "", "", ErrBanned
	}
	access, refresh, err := s.issueTokens(u)
	return u, access, refresh, err
}

// LoginWithGoogle creates or links a user by Google ID and returns tokens
// plus an isNew flag.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (*models.User, string, string, bool, error) {
	u, err := s.users.GetByGoogleID(googleID)
	if err == nil {
		if u.IsBanned() {
			return nil, "", "", false, ErrBanned
		}
		access, refresh, err := s.issueTokens(u)
		return u, access, refresh, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}
	if email != "" {
		if existing, err := s.users.GetByEmail(email); err == nil {
			// link Google to the existing account
			gid := googleID
			existing.GoogleID = &gid
			if avatarURL != "" && existing.AvatarURL == "" {
				existing.AvatarURL = avatarURL
			}
			if err := s.users.Update(existing); err != nil {
				return nil, "", "", false, err
			}
			access, refresh, err := s.issueTokens(existing)
			return existing, access, refresh, false, err
		}
	}
	gid := googleID
	username := strings.Split(email, "@")[0]
	if name != "" {
		username = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	}
	if username == "" {
		username = fmt.Sprintf("user%d", time.Now().UnixNano()%100000)
	}
	u = &models.User{
		Username:    username,
		DisplayName: name,
		Email:       email,
		GoogleID:    &gid,
		AvatarURL:   avatarURL,
		Role:        domain.RoleUser,
	}
	if err := s.users.Create(u); err != nil {
		// username collision: retry once with a random suffix
		u.Username = fmt.Sprintf("%s_%d", username, time.Now().UnixNano()%10000)
		if err := s.users.Create(u); err != nil {
			return nil, "", "", false, err
		}
	}
	access, refresh, err := s.issueTokens(u)
	return u, access, refresh, true, err
}

func (s *AuthService) issueTokens(u *models.User) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Phone, u.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return access, "", err
	}
	return access, refresh, nil
}
