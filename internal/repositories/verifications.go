package repositories

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rohits-web03/blogapi/internal/models"
	"github.com/rohits-web03/blogapi/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultVerificationTTL = 24 * time.Hour
	// 32 random bytes, well above the 122 bits of a v4 UUID.
	verificationTokenBytes = 32
)

// VerificationStore issues and consumes single-use email confirmation tokens.
type VerificationStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func Verifications(db *gorm.DB, ttl time.Duration) *VerificationStore {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationStore{
		db:  db,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *VerificationStore) WithClock(now func() time.Time) *VerificationStore {
	s.now = now
	return s
}

// Open inserts a fresh verification for email, or rotates the token and window
// of a pending one. A verified row yields ErrAlreadyVerified.
func (s *VerificationStore) Open(ctx context.Context, email string) (*models.EmailVerification, error) {
	email = models.NormalizeEmail(email)
	token, err := utils.GenerateSecureToken(verificationTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var v models.EmailVerification
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&v).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		v = models.EmailVerification{
			Email:     email,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		if err := s.db.WithContext(ctx).Create(&v).Error; err != nil {
			return nil, err
		}
		return &v, nil
	case err != nil:
		return nil, err
	}

	if v.IsVerified {
		return nil, ErrAlreadyVerified
	}

	v.Token = token
	v.CreatedAt = now
	v.ExpiresAt = now.Add(s.ttl)
	err = s.db.WithContext(ctx).
		Model(&models.EmailVerification{}).
		Where("id = ?", v.ID).
		Updates(map[string]any{
			"token":      v.Token,
			"created_at": v.CreatedAt,
			"expires_at": v.ExpiresAt,
		}).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Pending returns the unverified row for email, or ErrNotFound.
func (s *VerificationStore) Pending(ctx context.Context, email string) (*models.EmailVerification, error) {
	var v models.EmailVerification
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_verified = ?", models.NormalizeEmail(email), false).
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// Consume marks the verification identified by token as used and returns its email.
// The token is URL-unescaped once and matched exactly.
func (s *VerificationStore) Consume(ctx context.Context, token string) (string, error) {
	decoded, err := url.PathUnescape(token)
	if err != nil || decoded == "" {
		return "", ErrNotFound
	}

	var v models.EmailVerification
	if err := s.db.WithContext(ctx).Where("token = ?", decoded).First(&v).Error; err != nil {
		return "", notFound(err)
	}
	if v.Token != decoded {
		return "", ErrNotFound
	}
	if v.IsVerified {
		return "", ErrAlreadyVerified
	}
	if !v.ExpiresAt.After(s.now()) {
		return "", ErrExpired
	}

	// Guarded on is_verified so that concurrent consumers cannot both succeed.
	res := s.db.WithContext(ctx).
		Model(&models.EmailVerification{}).
		Where("id = ? AND is_verified = ?", v.ID, false).
		Update("is_verified", true)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrAlreadyVerified
	}
	return v.Email, nil
}

// Purge removes every verification row for email.
func (s *VerificationStore) Purge(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		Delete(&models.EmailVerification{}).Error
}
