package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
)

// Repository provides user persistence for authentication.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByEmail loads an active user by normalized email.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		First(&user, "LOWER(email) = ? AND is_active", email).
		Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
