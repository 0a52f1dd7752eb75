package repository

import (
	"context"
	"time"

	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/utils"
)

// OrderRepository defines the interface for order data access.
// Returned lists are not sorted; ordering is the caller's concern.
type OrderRepository interface {
	// CreateUnique inserts order unless the same user already has a
	// non-cancelled order at the same shop inside [start, end].
	// Check and insert run in one transaction.
	CreateUnique(ctx context.Context, order *models.Order, start, end time.Time) error

	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uint64) (*models.Order, error)

	// FindByUserAndWindow lists a user's orders created inside [start, end]
	FindByUserAndWindow(ctx context.Context, username string, start, end time.Time) ([]models.Order, error)

	// FindByShop lists a shop's orders inside [start, end], optionally
	// leaving out one user's orders
	FindByShop(ctx context.Context, shopName string, start, end time.Time, excludingUsername string) ([]models.Order, error)

	// FindByCompany lists a company's orders inside [start, end]
	FindByCompany(ctx context.Context, companyID uint64, start, end time.Time) ([]models.Order, error)

	// List pages through every order inside [start, end]
	List(ctx context.Context, start, end time.Time, page utils.PaginationParams) ([]models.Order, int64, error)

	// UpdateStatus moves an order from one status to another. It fails with
	// gorm.ErrRecordNotFound for unknown IDs and ErrStatusConflict when the
	// order is no longer in status from.
	UpdateStatus(ctx context.Context, id uint64, from, to models.OrderStatus, now time.Time) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdatePermission changes a user's permission level
	UpdatePermission(ctx context.Context, id uint64, level int) error

	// Touch records a token refresh
	Touch(ctx context.Context, id uint64) error
}

// MenuRepository defines the interface for menu data access
type MenuRepository interface {
	// FindByID finds a menu item by ID
	FindByID(ctx context.Context, id uint64) (*models.Menu, error)

	// ListEnabledByShop lists a shop's orderable items
	ListEnabledByShop(ctx context.Context, shopName string) ([]models.Menu, error)
}

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	// FindByID finds a company by ID
	FindByID(ctx context.Context, id uint64) (*models.Company, error)
}
