package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/lunch-order-api/internal/constants"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/permission"
	"github.com/yukikurage/lunch-order-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = apierrors.New(apierrors.KindInvalidInput, "username is required")
	ErrInvalidCredentials   = apierrors.New(apierrors.KindMissingToken, "invalid username or password")
	ErrPasswordTooShort     = apierrors.New(apierrors.KindInvalidInput, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	ErrInvalidPermission    = apierrors.New(apierrors.KindInvalidInput, "permission level must be positive")
	ErrUnknownCompany       = apierrors.New(apierrors.KindInvalidInput, "company not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, companyRepo repository.CompanyRepository) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
	}
}

// SignupInput represents the required information to create a new user.
// The plaintext password lives only here and is never stored.
type SignupInput struct {
	Username    string
	Password    string
	DisplayName *string
	CompanyID   *uint64
	ShopName    *string
	MenuID      *uint64
}

// Signup creates a new user with the default permission level. A user joining
// a company without naming a shop gets the company's shop.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, repository.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	shopName := input.ShopName
	if input.CompanyID != nil {
		company, err := s.companyRepo.FindByID(ctx, *input.CompanyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownCompany
			}
			return nil, fmt.Errorf("failed to find company: %w", err)
		}
		if company.Disabled {
			return nil, ErrUnknownCompany
		}
		if shopName == nil {
			shopName = company.ShopName
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
		CompanyID:    input.CompanyID,
		ShopName:     shopName,
		MenuID:       input.MenuID,
		Permission:   permission.User,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by username.
func (s *AuthService) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// SetPermission changes a user's permission level.
func (s *AuthService) SetPermission(ctx context.Context, userID uint64, level int) (*models.User, error) {
	if level <= 0 {
		return nil, ErrInvalidPermission
	}

	if err := s.userRepo.UpdatePermission(ctx, userID, level); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update permission: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return user, nil
}

// RecordRefresh marks the user as modified when a new token is issued.
func (s *AuthService) RecordRefresh(ctx context.Context, user *models.User) error {
	if err := s.userRepo.Touch(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to record token refresh: %w", err)
	}
	user.IsModified = true
	return nil
}
