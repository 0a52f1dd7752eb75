package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/lunch-order-api/internal/utils"
)

// Paginate applies pagination to a GORM query. A zero limit means no paging.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// CreatedBetween restricts orders to a closed [start, end] window.
func CreatedBetween(start, end time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("orders.created_at >= ? AND orders.created_at <= ?", start, end)
	}
}
