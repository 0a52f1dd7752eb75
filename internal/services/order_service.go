package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/lunch-order-api/internal/constants"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/metrics"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/permission"
	"github.com/yukikurage/lunch-order-api/internal/repository"
	"github.com/yukikurage/lunch-order-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = apierrors.New(apierrors.KindNotFound, "user not found")
	ErrOrderNotFound    = apierrors.New(apierrors.KindNotFound, "order not found")
	ErrNoShopAssigned   = apierrors.New(apierrors.KindInvalidInput, "no shop or default menu is registered for this user")
	ErrNoAffiliation    = apierrors.New(apierrors.KindInvalidInput, "no company or shop is registered for this user")
	ErrMenuUnavailable  = apierrors.New(apierrors.KindInvalidInput, "menu item is not available")
	ErrInvalidAmount    = apierrors.New(apierrors.KindInvalidInput, fmt.Sprintf("amount must be between %d and %d", constants.MinOrderAmount, constants.MaxOrderAmount))
	ErrNotOrderOwner    = apierrors.New(apierrors.KindNotAuthorized, "cannot change another user's order")
	ErrOtherShopsOrder  = apierrors.New(apierrors.KindNotAuthorized, "cannot change another shop's order")
	ErrNotCancelled     = apierrors.New(apierrors.KindInvalidTransition, "cancelled orders cannot be restored")
	ErrAlreadyCompleted = apierrors.New(apierrors.KindInvalidTransition, "completed orders cannot be unchecked")
)

// Requester is the verified caller of a workflow operation.
type Requester struct {
	Username   string
	Permission permission.Level
}

// OrderPolicy holds the configurable parts of order authorization.
type OrderPolicy struct {
	// CancelAny may cancel orders they do not own.
	CancelAny permission.Set
	// AnyShop may check orders of shops they do not belong to.
	AnyShop permission.Set
}

// PolicyFromMap reads the order policy from the permission map.
func PolicyFromMap(m permission.Map) OrderPolicy {
	return OrderPolicy{
		CancelAny: m.Gate(permission.GateCancelAny),
		AnyShop:   m.Gate(permission.GateAdmin),
	}
}

// CheckedUpdate is one item of a batch check request.
type CheckedUpdate struct {
	OrderID uint64
	Checked bool
}

// CancelUpdate is one item of a batch cancel request.
type CancelUpdate struct {
	OrderID  uint64
	Canceled bool
}

// UpdateResult is the outcome of one batch item. Err is nil on success.
type UpdateResult struct {
	OrderID uint64
	Value   bool
	Err     error
}

// Success reports whether the item was applied.
func (r UpdateResult) Success() bool { return r.Err == nil }

// OrderService runs the order workflow.
type OrderService struct {
	orders  repository.OrderRepository
	users   repository.UserRepository
	menus   repository.MenuRepository
	policy  OrderPolicy
	loc     *time.Location
	log     *logrus.Logger
	metrics *metrics.Metrics
	locks   *keyedMutex
}

// NewOrderService creates a new OrderService. loc is the shop timezone.
func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	menus repository.MenuRepository,
	policy OrderPolicy,
	loc *time.Location,
	log *logrus.Logger,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:  orders,
		users:   users,
		menus:   menus,
		policy:  policy,
		loc:     loc,
		log:     log,
		metrics: m,
		locks:   newKeyedMutex(),
	}
}

// Location returns the shop timezone.
func (s *OrderService) Location() *time.Location {
	return s.loc
}

// SubmitOrder places the user's default menu item at their shop. A second
// live order for the same shop and day fails with ErrDuplicateOrder.
func (s *OrderService) SubmitOrder(ctx context.Context, username string, amount int, now time.Time) (*models.Order, error) {
	if amount < constants.MinOrderAmount || amount > constants.MaxOrderAmount {
		return nil, ErrInvalidAmount
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.ShopName == nil || *user.ShopName == "" || user.MenuID == nil {
		return nil, ErrNoShopAssigned
	}
	shop := *user.ShopName

	menu, err := s.menus.FindByID(ctx, *user.MenuID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuUnavailable
		}
		return nil, fmt.Errorf("failed to find menu: %w", err)
	}
	if menu.Disabled || menu.ShopName != shop {
		return nil, ErrMenuUnavailable
	}

	start, end := ComputeWindow(now, s.loc, 0)
	createdAt := Naive(now, s.loc)
	slot := createdAt.Format(models.SlotLayout)

	unlock := s.locks.Lock(strconv.FormatUint(user.ID, 10) + "|" + shop + "|" + slot)
	defer unlock()

	order := &models.Order{
		UserID:     user.ID,
		CompanyID:  user.CompanyID,
		ShopName:   shop,
		MenuID:     menu.ID,
		Amount:     amount,
		Total:      menu.Price * amount,
		Status:     models.OrderStatusPending,
		ActiveSlot: &slot,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	if err := s.orders.CreateUnique(ctx, order, start, end); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			s.metrics.OrderSubmitted(shop, "duplicate")
			return nil, err
		}
		s.metrics.OrderSubmitted(shop, "error")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.User = *user
	order.Menu = *menu
	s.metrics.OrderSubmitted(shop, "created")
	s.audit(order, "submitted")
	return order, nil
}

// CancelOrder moves a pending order to cancelled. Owners may always cancel;
// other callers need a level from the cancel-any policy. The user may order
// again at that shop on the same day afterwards.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint64, requester Requester, now time.Time) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.User.Username != requester.Username && !s.policy.CancelAny.Contains(requester.Permission) {
		return nil, ErrNotOrderOwner
	}

	if err := s.transition(ctx, order, models.OrderStatusCancelled, now); err != nil {
		return nil, err
	}
	order.ActiveSlot = nil
	s.audit(order, "cancelled")
	return order, nil
}

// ListForShop returns a shop's orders from daysAgo days back until the end
// of today, newest first.
func (s *OrderService) ListForShop(ctx context.Context, shopName string, daysAgo int, excludingUsername string, now time.Time) ([]models.Order, error) {
	start, end := ComputeWindow(now, s.loc, daysAgo)
	orders, err := s.orders.FindByShop(ctx, shopName, start, end, excludingUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop orders: %w", err)
	}
	return sortNewestFirst(orders), nil
}

// ListForCompany returns a company's orders, newest first.
func (s *OrderService) ListForCompany(ctx context.Context, companyID uint64, daysAgo int, now time.Time) ([]models.Order, error) {
	start, end := ComputeWindow(now, s.loc, daysAgo)
	orders, err := s.orders.FindByCompany(ctx, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list company orders: %w", err)
	}
	return sortNewestFirst(orders), nil
}

// ListForUser returns a user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, username string, daysAgo int, now time.Time) ([]models.Order, error) {
	start, end := ComputeWindow(now, s.loc, daysAgo)
	orders, err := s.orders.FindByUserAndWindow(ctx, username, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	return sortNewestFirst(orders), nil
}

// ListAll returns one page of every order in the window, newest first.
func (s *OrderService) ListAll(ctx context.Context, daysAgo int, page utils.PaginationParams, now time.Time) ([]models.Order, int64, error) {
	start, end := ComputeWindow(now, s.loc, daysAgo)
	orders, total, err := s.orders.List(ctx, start, end, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return sortNewestFirst(orders), total, nil
}

// ListForShopOf returns today's orders of the requester's own shop. Callers
// in the any-shop policy may name another shop.
func (s *OrderService) ListForShopOf(ctx context.Context, requester Requester, shopOverride string, now time.Time) (string, []models.Order, error) {
	shop := shopOverride
	if shop == "" || !s.policy.AnyShop.Contains(requester.Permission) {
		user, err := s.findUser(ctx, requester.Username)
		if err != nil {
			return "", nil, err
		}
		if user.ShopName == nil || *user.ShopName == "" {
			return "", nil, ErrNoAffiliation
		}
		shop = *user.ShopName
	}

	orders, err := s.ListForShop(ctx, shop, 0, "", now)
	return shop, orders, err
}

// ListForManager returns the orders of the requester's company from
// yesterday through today. Without a company the requester's shop is used.
func (s *OrderService) ListForManager(ctx context.Context, requester Requester, now time.Time) ([]models.Order, error) {
	user, err := s.findUser(ctx, requester.Username)
	if err != nil {
		return nil, err
	}

	switch {
	case user.CompanyID != nil:
		return s.ListForCompany(ctx, *user.CompanyID, -1, now)
	case user.ShopName != nil && *user.ShopName != "":
		return s.ListForShop(ctx, *user.ShopName, -1, "", now)
	default:
		return nil, ErrNoAffiliation
	}
}

// BulkUpdateChecked applies each update on its own. Checking a pending order
// completes it; unchecking is only accepted while the order is pending.
func (s *OrderService) BulkUpdateChecked(ctx context.Context, requester Requester, updates []CheckedUpdate, now time.Time) []UpdateResult {
	var ownShop string
	anyShop := s.policy.AnyShop.Contains(requester.Permission)
	if !anyShop {
		if user, err := s.findUser(ctx, requester.Username); err == nil && user.ShopName != nil {
			ownShop = *user.ShopName
		}
	}

	results := make([]UpdateResult, 0, len(updates))
	for _, u := range updates {
		err := s.applyChecked(ctx, u, anyShop, ownShop, now)
		s.metrics.StatusUpdated("checked", err == nil)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id": u.OrderID,
				"checked":  u.Checked,
			}).WithError(err).Warn("checked update failed")
		}
		results = append(results, UpdateResult{OrderID: u.OrderID, Value: u.Checked, Err: err})
	}
	return results
}

func (s *OrderService) applyChecked(ctx context.Context, u CheckedUpdate, anyShop bool, ownShop string, now time.Time) error {
	order, err := s.findOrder(ctx, u.OrderID)
	if err != nil {
		return err
	}
	if !anyShop && order.ShopName != ownShop {
		return ErrOtherShopsOrder
	}

	if !u.Checked {
		if order.Status == models.OrderStatusPending {
			return nil
		}
		return ErrAlreadyCompleted
	}

	if err := s.transition(ctx, order, models.OrderStatusCompleted, now); err != nil {
		return err
	}
	s.audit(order, "completed")
	return nil
}

// BulkUpdateCanceled applies each cancel request on its own.
func (s *OrderService) BulkUpdateCanceled(ctx context.Context, requester Requester, updates []CancelUpdate, now time.Time) []UpdateResult {
	results := make([]UpdateResult, 0, len(updates))
	for _, u := range updates {
		var err error
		if u.Canceled {
			_, err = s.CancelOrder(ctx, u.OrderID, requester, now)
		} else {
			err = s.keepActive(ctx, u.OrderID, requester)
		}

		s.metrics.StatusUpdated("canceled", err == nil)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id": u.OrderID,
				"canceled": u.Canceled,
			}).WithError(err).Warn("cancel update failed")
		}
		results = append(results, UpdateResult{OrderID: u.OrderID, Value: u.Canceled, Err: err})
	}
	return results
}

// keepActive accepts canceled=false for orders that were never cancelled.
func (s *OrderService) keepActive(ctx context.Context, orderID uint64, requester Requester) error {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.User.Username != requester.Username && !s.policy.CancelAny.Contains(requester.Permission) {
		return ErrNotOrderOwner
	}
	if order.Status == models.OrderStatusCancelled {
		return ErrNotCancelled
	}
	return nil
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus, now time.Time) error {
	if err := CanTransition(order.Status, to); err != nil {
		return err
	}

	updatedAt := Naive(now, s.loc)
	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, to, updatedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	order.Status = to
	order.UpdatedAt = updatedAt
	if to == models.OrderStatusCompleted {
		order.Checked = true
	}
	return nil
}

func (s *OrderService) findUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *OrderService) findOrder(ctx context.Context, id uint64) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

// audit writes the ORDER line. It runs after the write committed and never
// affects the outcome.
func (s *OrderService) audit(order *models.Order, action string) {
	s.log.WithFields(logrus.Fields{
		"tag":      "ORDER",
		"action":   action,
		"order_id": order.ID,
		"user_id":  order.UserID,
		"shop":     order.ShopName,
		"menu_id":  order.MenuID,
		"amount":   order.Amount,
		"status":   order.Status,
	}).Info("order " + action)
}

func sortNewestFirst(orders []models.Order) []models.Order {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}
