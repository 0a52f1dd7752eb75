package repository

import (
	"context"

	"github.com/yukikurage/lunch-order-api/internal/database"
	"github.com/yukikurage/lunch-order-api/internal/models"
)

// GormMenuRepository is a GORM implementation of MenuRepository
type GormMenuRepository struct {
	conn *database.Conn
}

// NewMenuRepository creates a new MenuRepository
func NewMenuRepository(conn *database.Conn) MenuRepository {
	return &GormMenuRepository{conn: conn}
}

// FindByID finds a menu item by ID
func (r *GormMenuRepository) FindByID(ctx context.Context, id uint64) (*models.Menu, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var menu models.Menu
	if err := db.First(&menu, id).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

// ListEnabledByShop lists a shop's orderable items
func (r *GormMenuRepository) ListEnabledByShop(ctx context.Context, shopName string) ([]models.Menu, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var menus []models.Menu
	err = db.Where("shop_name = ? AND disabled = ?", shopName, false).
		Order("id ASC").
		Find(&menus).Error
	return menus, err
}
