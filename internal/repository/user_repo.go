package repository

import (
	"context"
	"strings"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindClient(ctx context.Context, companyID, id uint) (*models.User, error)
	UpdateJTI(ctx context.Context, id uint, jti string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindClient returns a user of the company holding the client role.
func (r *userRepository) FindClient(ctx context.Context, companyID, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND role = ?", companyID, models.RoleClient).
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateJTI(ctx context.Context, id uint, jti string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("jti", jti).Error
}
