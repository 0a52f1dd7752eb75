package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/lunch-order-api/internal/database"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateOrder is returned when the user already has a live order
	// at the shop for the day.
	ErrDuplicateOrder = apierrors.New(apierrors.KindDuplicateOrder, "")
	// ErrStatusConflict is returned when an order left the expected status
	// before the update landed.
	ErrStatusConflict = apierrors.New(apierrors.KindInvalidTransition, "order status changed concurrently")
)

// GormOrderRepository is a GORM implementation of OrderRepository
type GormOrderRepository struct {
	conn *database.Conn
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(conn *database.Conn) OrderRepository {
	return &GormOrderRepository{conn: conn}
}

// CreateUnique checks for a live order and inserts in one transaction. The
// unique index on (user_id, shop_name, active_slot) catches writers in other
// processes that slip between the two statements.
func (r *GormOrderRepository) CreateUnique(ctx context.Context, order *models.Order, start, end time.Time) error {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Order{}).
			Scopes(database.CreatedBetween(start, end)).
			Where("orders.user_id = ? AND orders.shop_name = ? AND orders.status <> ?",
				order.UserID, order.ShopName, models.OrderStatusCancelled).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateOrder
		}

		return tx.Create(order).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOrder
		}
		return err
	}
	return nil
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint64) (*models.Order, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := db.Preload("User").Preload("Menu").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserAndWindow lists a user's orders created inside [start, end]
func (r *GormOrderRepository) FindByUserAndWindow(ctx context.Context, username string, start, end time.Time) ([]models.Order, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	err = r.withRelations(db).
		Joins("JOIN users ON users.id = orders.user_id").
		Where("users.username = ?", username).
		Scopes(database.CreatedBetween(start, end)).
		Find(&orders).Error
	return orders, err
}

// FindByShop lists a shop's orders inside [start, end]
func (r *GormOrderRepository) FindByShop(ctx context.Context, shopName string, start, end time.Time, excludingUsername string) ([]models.Order, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	query := r.withRelations(db).
		Where("orders.shop_name = ?", shopName).
		Scopes(database.CreatedBetween(start, end))

	if excludingUsername != "" {
		query = query.
			Joins("JOIN users ON users.id = orders.user_id").
			Where("users.username <> ?", excludingUsername)
	}

	var orders []models.Order
	err = query.Find(&orders).Error
	return orders, err
}

// FindByCompany lists a company's orders inside [start, end]
func (r *GormOrderRepository) FindByCompany(ctx context.Context, companyID uint64, start, end time.Time) ([]models.Order, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	err = r.withRelations(db).
		Where("orders.company_id = ?", companyID).
		Scopes(database.CreatedBetween(start, end)).
		Find(&orders).Error
	return orders, err
}

// List pages through every order inside [start, end]
func (r *GormOrderRepository) List(ctx context.Context, start, end time.Time, page utils.PaginationParams) ([]models.Order, int64, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Model(&models.Order{}).
		Scopes(database.CreatedBetween(start, end)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Pages need a deterministic order; callers still re-sort for display.
	var orders []models.Order
	if err := r.withRelations(db).
		Scopes(database.CreatedBetween(start, end)).
		Order("orders.id DESC").
		Scopes(database.Paginate(page)).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus moves an order from one status to another
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uint64, from, to models.OrderStatus, now time.Time) error {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	switch to {
	case models.OrderStatusCancelled:
		updates["active_slot"] = gorm.Expr("NULL")
	case models.OrderStatusCompleted:
		updates["checked"] = true
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id").First(&order, id).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d", ErrStatusConflict, id)
		}
		return nil
	})
}

func (r *GormOrderRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Menu")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "duplicate key")
}
