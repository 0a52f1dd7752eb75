package models

import (
	"time"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  *string   `gorm:"type:varchar(255)" json:"display_name"`
	CompanyID    *uint64   `gorm:"index" json:"company_id"`
	ShopName     *string   `gorm:"type:varchar(255)" json:"shop_name"`
	MenuID       *uint64   `json:"menu_id"`
	Permission   int       `gorm:"not null;default:1" json:"permission"`
	IsModified   bool      `gorm:"not null;default:false" json:"is_modified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Company *Company `gorm:"foreignKey:CompanyID" json:"-"`
	Menu    *Menu    `gorm:"foreignKey:MenuID" json:"-"`
}
