package repository

import (
	"context"

	"github.com/yukikurage/lunch-order-api/internal/database"
	"github.com/yukikurage/lunch-order-api/internal/models"
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	conn *database.Conn
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(conn *database.Conn) CompanyRepository {
	return &GormCompanyRepository{conn: conn}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uint64) (*models.Company, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var company models.Company
	if err := db.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
