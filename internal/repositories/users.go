package repositories

import (
	"context"

	"github.com/rohits-web03/blogapi/internal/models"
	"gorm.io/gorm"
)

// UserStore reads and writes users through db, which may be a transaction.
type UserStore struct {
	db *gorm.DB
}

func Users(db *gorm.DB) UserStore {
	return UserStore{db: db}
}

func (s UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByEmail matches on the normalized address regardless of is_active.
func (s UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s UserStore) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", models.NormalizeEmail(email), true).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s UserStore) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if user.Name == "" {
		user.Name = models.LocalPart(user.Email)
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s UserStore) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s UserStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
