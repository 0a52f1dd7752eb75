package models

import "time"

type Company struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     *string   `gorm:"type:varchar(50)" json:"phone"`
	ShopName  *string   `gorm:"type:varchar(255)" json:"shop_name"`
	Disabled  bool      `gorm:"not null;default:false" json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}
