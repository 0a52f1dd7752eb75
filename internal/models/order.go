package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// SlotLayout formats the order day stored in ActiveSlot.
const SlotLayout = "2006-01-02"

// Order is one lunch order of one user at one shop on one day.
//
// ActiveSlot holds the order day while the order is not cancelled and NULL
// afterwards. Together with UserID and ShopName it is unique, which keeps a
// single live order per user, shop and day even across processes.
type Order struct {
	ID                 uint64      `gorm:"primarykey" json:"id"`
	UserID             uint64      `gorm:"not null;index;uniqueIndex:idx_orders_user_shop_slot,priority:1" json:"user_id"`
	CompanyID          *uint64     `gorm:"index" json:"company_id"`
	ShopName           string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_shop_slot,priority:2" json:"shop_name"`
	MenuID             uint64      `gorm:"not null" json:"menu_id"`
	Amount             int         `gorm:"not null;default:1;check:amount > 0" json:"amount"`
	Total              int         `gorm:"not null;default:0" json:"total"`
	Status             OrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Checked            bool        `gorm:"not null;default:false" json:"checked"`
	ActiveSlot         *string     `gorm:"type:varchar(10);uniqueIndex:idx_orders_user_shop_slot,priority:3" json:"-"`
	CreatedAt          time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	ExpectedDeliveryAt *time.Time  `json:"expected_delivery_at"`

	// Relations
	User    User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"-"`
	Menu    Menu     `gorm:"foreignKey:MenuID" json:"-"`
}

// IsTerminal reports whether no further status change is allowed.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}
