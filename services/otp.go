package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"habitpact/models"
)

const (
	otpLength      = 6
	otpMaxAttempts = 5
)

// SMSSender delivers a one-time code to a phone number. The real gateway is
// out of scope; LogSender stands in for it.
type SMSSender interface {
	Send(phone, message string) error
}

// LogSender writes the code to the server log instead of sending SMS.
type LogSender struct{}

func (LogSender) Send(phone, message string) error {
	slog.Info("SMS (dev sender)", "phone", phone, "message", message)
	return nil
}

// OTPService handles the SMS passcode login flow: mint a code, verify it,
// and bootstrap the profile on first login.
type OTPService struct {
	db      *gorm.DB
	sender  SMSSender
	codeTTL time.Duration
}

func NewOTPService(db *gorm.DB, sender SMSSender, codeTTL time.Duration) *OTPService {
	return &OTPService{db: db, sender: sender, codeTTL: codeTTL}
}

// NormalizePhone strips formatting and prepends "+" when missing.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	cleaned = strings.TrimPrefix(cleaned, "+")
	if len(cleaned) < 7 || len(cleaned) > 15 {
		return "", fmt.Errorf("%w: phone number must be 7-15 digits", ErrValidation)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone number must contain only digits", ErrValidation)
		}
	}
	return "+" + cleaned, nil
}

// SendCode mints a fresh code for the phone, superseding any pending
// challenge, and hands it to the SMS sender. The plaintext code is returned
// so the handler can echo it in dev mode; only its bcrypt hash is stored.
func (s *OTPService) SendCode(phone string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	code, err := randomDigits(otpLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	// A new challenge supersedes older ones for this phone
	if err := s.db.Where("phone = ?", normalized).Delete(&models.PhoneChallenge{}).Error; err != nil {
		return "", fmt.Errorf("supersede challenges: %w", err)
	}

	challenge := models.PhoneChallenge{
		Phone:     normalized,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.db.Create(&challenge).Error; err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}

	message := fmt.Sprintf("Your habitpact verification code is %s", code)
	if err := s.sender.Send(normalized, message); err != nil {
		return "", fmt.Errorf("send code: %w", err)
	}

	return code, nil
}

// VerifyCode checks the submitted code against the pending challenge.
// On success the challenge is consumed and the profile for the phone is
// returned; a nil profile with a fresh user id means the caller still has
// to complete their profile.
func (s *OTPService) VerifyCode(phone, code string) (*models.Profile, string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, "", err
	}

	var challenge models.PhoneChallenge
	result := s.db.
		Where("phone = ? AND expires_at > ?", normalized, time.Now()).
		Order("created_at DESC").
		First(&challenge)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, "", ErrCodeExpired
		}
		return nil, "", result.Error
	}

	if challenge.Attempts >= otpMaxAttempts {
		return nil, "", ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)); err != nil {
		s.db.Model(&challenge).Update("attempts", gorm.Expr("attempts + 1"))
		return nil, "", ErrCodeMismatch
	}

	// Consume every pending challenge for this phone
	if err := s.db.Where("phone = ?", normalized).Delete(&models.PhoneChallenge{}).Error; err != nil {
		return nil, "", err
	}

	var profile models.Profile
	result = s.db.Where("phone = ?", normalized).First(&profile)
	if result.Error == nil {
		return &profile, profile.UserID, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, "", result.Error
	}

	// First login: mint the opaque user id now, the profile row is created
	// once the user picks a display name
	return nil, uuid.New().String(), nil
}

// CompleteProfile creates the profile row for a freshly verified phone.
func (s *OTPService) CompleteProfile(userID, phone, displayName string) (*models.Profile, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name required", ErrValidation)
	}

	var existing models.Profile
	if result := s.db.Where("phone = ?", phone).First(&existing); result.Error == nil {
		// Profile already exists for this phone, treat as benign
		return &existing, nil
	}

	profile := models.Profile{
		UserID:      userID,
		Phone:       phone,
		DisplayName: &name,
	}
	if err := s.db.Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return &profile, nil
}

// GetProfile returns the profile for a user id.
func (s *OTPService) GetProfile(userID string) (*models.Profile, error) {
	var profile models.Profile
	result := s.db.Where("user_id = ?", userID).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, result.Error
	}
	return &profile, nil
}

// UpdateDisplayName changes the caller's display name.
func (s *OTPService) UpdateDisplayName(userID, displayName string) (*models.Profile, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name required", ErrValidation)
	}

	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = &name
	if err := s.db.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// randomDigits returns n digits from crypto/rand.
func randomDigits(n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
