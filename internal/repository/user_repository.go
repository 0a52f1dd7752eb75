package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/lunch-order-api/internal/database"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	conn *database.Conn
}

var (
	// ErrUsernameTaken is returned when signup collides with an existing username.
	ErrUsernameTaken = apierrors.New(apierrors.KindConstraintViolation, "username already exists")
	// ErrCreateUser is returned when creating a user fails for any other reason.
	ErrCreateUser = errors.New("user repository: create user failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(conn *database.Conn) UserRepository {
	return &GormUserRepository{conn: conn}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("%w: %w", ErrCreateUser, err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Preload("Company").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Preload("Company").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePermission changes a user's permission level
func (r *GormUserRepository) UpdatePermission(ctx context.Context, id uint64, level int) error {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("permission", level)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Touch records a token refresh
func (r *GormUserRepository) Touch(ctx context.Context, id uint64) error {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("is_modified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
