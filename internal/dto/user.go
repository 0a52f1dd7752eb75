package dto

import (
	"time"

	"github.com/yukikurage/lunch-order-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64    `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	CompanyID   *uint64   `json:"company_id,omitempty"`
	ShopName    *string   `json:"shop_name,omitempty"`
	MenuID      *uint64   `json:"menu_id,omitempty"`
	Permission  int       `json:"permission"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MenuDTO represents a menu item in API responses
type MenuDTO struct {
	ID          uint64  `json:"id"`
	ShopName    string  `json:"shop_name"`
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Description *string `json:"description,omitempty"`
	PicturePath *string `json:"picture_path,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CompanyID:   user.CompanyID,
		ShopName:    user.ShopName,
		MenuID:      user.MenuID,
		Permission:  user.Permission,
		UpdatedAt:   user.UpdatedAt,
	}
}

// ToMenuDTOs converts menu items to DTOs
func ToMenuDTOs(menus []models.Menu) []MenuDTO {
	items := make([]MenuDTO, len(menus))
	for i, m := range menus {
		items[i] = MenuDTO{
			ID:          m.ID,
			ShopName:    m.ShopName,
			Name:        m.Name,
			Price:       m.Price,
			Description: m.Description,
			PicturePath: m.PicturePath,
		}
	}
	return items
}
