package models

import "time"

const (
	MaxTitleLength = 30
	MaxBodyLength  = 1000
)

type Article struct {
	ID        uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	ArticleID uint      `json:"article_id" gorm:"uniqueIndex;not null"`
	Title     string    `json:"title" gorm:"type:varchar(30);not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	OwnerID   uint      `json:"user_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ArticleSequence holds the highest article_id ever handed out, so numbers of deleted articles are never reissued.
type ArticleSequence struct {
	Name      string `gorm:"type:text;primaryKey"`
	LastValue uint   `gorm:"not null;default:0"`
}
