package dto

import (
	"time"

	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/services"
	"github.com/yukikurage/lunch-order-api/internal/utils"
)

// OrderRowDTO is one row of an order table
type OrderRowDTO struct {
	ID          uint64             `json:"id"`
	Username    string             `json:"username"`
	DisplayName *string            `json:"display_name,omitempty"`
	ShopName    string             `json:"shop_name"`
	MenuName    string             `json:"menu_name"`
	Amount      int                `json:"amount"`
	Total       int                `json:"total"`
	Status      models.OrderStatus `json:"status"`
	Checked     bool               `json:"checked"`
	CreatedAt   time.Time          `json:"created_at"`
}

// OrderTable is what a view renders. Orders keep the order they were given in.
type OrderTable struct {
	Title      string                    `json:"title"`
	Orders     []OrderRowDTO             `json:"orders"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// OrderCompleteResponse is returned after a successful submission
type OrderCompleteResponse struct {
	Order  OrderRowDTO   `json:"order"`
	Orders []OrderRowDTO `json:"orders"`
}

// CheckedUpdateRequest is the body of /update_checked_status
type CheckedUpdateRequest struct {
	Updates []struct {
		OrderID uint64 `json:"order_id" binding:"required"`
		Checked bool   `json:"checked"`
	} `json:"updates" binding:"required,dive"`
}

// CancelUpdateRequest is the body of /update_cancel_status
type CancelUpdateRequest struct {
	Updates []struct {
		OrderID  uint64 `json:"order_id" binding:"required"`
		Canceled bool   `json:"canceled"`
	} `json:"updates" binding:"required,dive"`
}

// CheckedResultDTO reports one item of a checked batch
type CheckedResultDTO struct {
	OrderID uint64 `json:"order_id"`
	Checked bool   `json:"checked"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CancelResultDTO reports one item of a cancel batch
type CancelResultDTO struct {
	OrderID  uint64 `json:"order_id"`
	Canceled bool   `json:"canceled"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ToOrderRowDTO converts an Order model to a table row
func ToOrderRowDTO(order models.Order) OrderRowDTO {
	return OrderRowDTO{
		ID:          order.ID,
		Username:    order.User.Username,
		DisplayName: order.User.DisplayName,
		ShopName:    order.ShopName,
		MenuName:    order.Menu.Name,
		Amount:      order.Amount,
		Total:       order.Total,
		Status:      order.Status,
		Checked:     order.Checked,
		CreatedAt:   order.CreatedAt,
	}
}

// ToOrderRows converts orders without reordering them
func ToOrderRows(orders []models.Order) []OrderRowDTO {
	rows := make([]OrderRowDTO, len(orders))
	for i, order := range orders {
		rows[i] = ToOrderRowDTO(order)
	}
	return rows
}

// ToOrderTable builds a titled table
func ToOrderTable(title string, orders []models.Order) OrderTable {
	return OrderTable{
		Title:  title,
		Orders: ToOrderRows(orders),
	}
}

// ToCheckedResults converts batch results
func ToCheckedResults(results []services.UpdateResult) []CheckedResultDTO {
	out := make([]CheckedResultDTO, len(results))
	for i, r := range results {
		out[i] = CheckedResultDTO{
			OrderID: r.OrderID,
			Checked: r.Value,
			Success: r.Success(),
			Error:   resultMessage(r),
		}
	}
	return out
}

// ToCancelResults converts batch results
func ToCancelResults(results []services.UpdateResult) []CancelResultDTO {
	out := make([]CancelResultDTO, len(results))
	for i, r := range results {
		out[i] = CancelResultDTO{
			OrderID:  r.OrderID,
			Canceled: r.Value,
			Success:  r.Success(),
			Error:    resultMessage(r),
		}
	}
	return out
}

func resultMessage(r services.UpdateResult) string {
	if r.Err == nil {
		return ""
	}
	_, apiErr := apierrors.Translate(r.Err)
	return apiErr.Message
}
