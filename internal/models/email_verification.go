package models

import "time"

// EmailVerification has no foreign key to users: the user row is only created once the token is consumed.
type EmailVerification struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email      string    `json:"email" gorm:"type:text;uniqueIndex;not null"`
	Token      string    `json:"-" gorm:"type:text;uniqueIndex;not null"`
	IsVerified bool      `json:"is_verified" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null"`
}
