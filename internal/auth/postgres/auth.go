package postgres

import (
	"context"
	"errors"

	"github.com/mkalenga/unigest/internal"
	"github.com/mkalenga/unigest/internal/auth"
	"gorm.io/gorm"
)

// AuthRepository implements auth.RepositoryAPI using GORM.
type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{db: db}
}

type userModel struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	Email        string `gorm:"column:email"`
	Name         string `gorm:"column:name"`
	PasswordHash string `gorm:"column:password_hash"`
	IsActive     bool   `gorm:"column:is_active"`
}

func (userModel) TableName() string { return "users" }

func (r *AuthRepository) GetCredentialsByEmail(ctx context.Context, email string) (string, int64, error) {
	var model userModel
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return "", 0, err
	}
	return model.PasswordHash, model.ID, nil
}

func (r *AuthRepository) GetUserByID(ctx context.Context, userID int64) (*auth.User, error) {
	var model userModel
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}

	return &auth.User{
		ID:       model.ID,
		Email:    model.Email,
		Name:     model.Name,
		IsActive: model.IsActive,
	}, nil
}
