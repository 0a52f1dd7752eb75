package models

import "time"

type Menu struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	ShopName    string    `gorm:"type:varchar(255);not null;index" json:"shop_name"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Price       int       `gorm:"not null;check:price > 0" json:"price"`
	Description *string   `gorm:"type:text" json:"description"`
	PicturePath *string   `gorm:"type:varchar(255)" json:"picture_path"`
	Disabled    bool      `gorm:"not null;default:false" json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
}
