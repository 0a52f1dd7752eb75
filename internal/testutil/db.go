// Package testutil builds in-memory databases and fixtures for tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/lunch-order-api/internal/database"
	"github.com/yukikurage/lunch-order-api/internal/logging"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConn opens a migrated in-memory sqlite database. A single pooled
// connection keeps every goroutine on the same in-memory database.
func NewConn(t *testing.T) *database.Conn {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, logging.Discard()))

	return database.NewConn(db, database.RetryPolicy{Attempts: 1}, logging.Discard())
}

// Fixture seeds reference data.
type Fixture struct {
	t  *testing.T
	db *gorm.DB
}

// NewFixture wraps conn for seeding.
func NewFixture(t *testing.T, conn *database.Conn) *Fixture {
	return &Fixture{t: t, db: conn.DB()}
}

// Company creates a company attached to shop.
func (f *Fixture) Company(name, shop string) *models.Company {
	f.t.Helper()
	c := &models.Company{Name: name, ShopName: &shop}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

// Menu creates an enabled menu item.
func (f *Fixture) Menu(shop, name string, price int) *models.Menu {
	f.t.Helper()
	m := &models.Menu{ShopName: shop, Name: name, Price: price}
	require.NoError(f.t, f.db.Create(m).Error)
	return m
}

// DisableMenu marks a menu item as not orderable.
func (f *Fixture) DisableMenu(m *models.Menu) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(m).Update("disabled", true).Error)
	m.Disabled = true
}

// User creates a user of the given level belonging to menu's shop. company
// may be nil.
func (f *Fixture) User(username string, level int, menu *models.Menu, company *models.Company) *models.User {
	f.t.Helper()
	u := &models.User{
		Username:     username,
		PasswordHash: "x",
		Permission:   level,
	}
	if menu != nil {
		u.ShopName = &menu.ShopName
		u.MenuID = &menu.ID
	}
	if company != nil {
		u.CompanyID = &company.ID
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

// Order inserts an order row as-is, bypassing the workflow.
func (f *Fixture) Order(o *models.Order) *models.Order {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(o).Error)
	return o
}

// Reload reads an order back from the database.
func (f *Fixture) Reload(id uint64) *models.Order {
	f.t.Helper()
	var o models.Order
	require.NoError(f.t, f.db.First(&o, id).Error)
	return &o
}
