package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the lookup indexes the order tables rely on
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	indexes := []struct {
		model interface{}
		name  string
		// field names as declared on the model
		fields []string
	}{
		// Shop table and manager table lookups by day
		{&models.Order{}, "idx_orders_shop_created", []string{"ShopName", "CreatedAt"}},
		{&models.Order{}, "idx_orders_company_created", []string{"CompanyID", "CreatedAt"}},
		{&models.Order{}, "idx_orders_user_created", []string{"UserID", "CreatedAt"}},

		// Menu browsing
		{&models.Menu{}, "idx_menus_shop_disabled", []string{"ShopName", "Disabled"}},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		columns := make([]string, 0, len(idx.fields))
		for _, f := range idx.fields {
			field := stmt.Schema.LookUpField(f)
			if field == nil {
				return fmt.Errorf("index %s: unknown field %s", idx.name, f)
			}
			columns = append(columns, field.DBName)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, strings.Join(columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Info("created index")
	}

	return nil
}
