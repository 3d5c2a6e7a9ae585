package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used in production.
const DefaultPasswordCost = 12

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("auth: password exceeds 72 bytes")

// Hasher produces and checks self-describing bcrypt hashes ($2a$<cost>$<salt><digest>).
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	return Hasher{cost: cost}
}

var DefaultHasher = NewHasher(DefaultPasswordCost)

// Hash salts every call independently, so equal inputs give different outputs.
func (h Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify is constant-time in the digest comparison and false for malformed hashes.
func (h Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
