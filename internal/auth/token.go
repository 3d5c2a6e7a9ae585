package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenAccess            TokenType = "access"
	TokenEmailVerification TokenType = "email_verification"
	TokenPasswordReset     TokenType = "password_reset"
)

const (
	DefaultAccessTTL            = 60 * time.Minute
	DefaultEmailVerificationTTL = 24 * time.Hour
	DefaultPasswordResetTTL     = 30 * time.Minute
)

// DefaultTTL returns the lifetime of a token of type t.
func DefaultTTL(t TokenType) time.Duration {
	switch t {
	case TokenEmailVerification:
		return DefaultEmailVerificationTTL
	case TokenPasswordReset:
		return DefaultPasswordResetTTL
	default:
		return DefaultAccessTTL
	}
}

var (
	ErrConfig       = errors.New("token signing is not configured")
	ErrTokenIssue   = errors.New("could not issue token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Claims carries the subject email in sub and the numeric user id in id.
type Claims struct {
	UserID uint      `json:"id"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

type TokenCodec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewTokenCodec accepts an HMAC algorithm name (HS256, HS384, HS512). An empty
// secret is allowed here; Issue reports ErrConfig for it.
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrConfig, algorithm)
	}
	return &TokenCodec{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source used for iat/exp and validation.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

func (c *TokenCodec) Issue(subject string, userID uint, typ TokenType, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrConfig
	}
	now := c.now()
	claims := Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenIssue, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and type, and requires sub and id.
func (c *TokenCodec) Verify(token string, expected TokenType) (*Claims, error) {
	if len(c.secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Type != expected {
		return nil, fmt.Errorf("%w: type %q, want %q", ErrInvalidToken, claims.Type, expected)
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
