package services

import (
	"fmt"

	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/models"
)

// ErrInvalidTransition is returned for any status change outside the table.
var ErrInvalidTransition = apierrors.New(apierrors.KindInvalidTransition, "")

type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Completed and cancelled are terminal; nothing leaves them.
var validTransitions = map[transitionKey]bool{
	{models.OrderStatusPending, models.OrderStatusCompleted}: true,
	{models.OrderStatusPending, models.OrderStatusCancelled}: true,
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) error {
	if validTransitions[transitionKey{from, to}] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
