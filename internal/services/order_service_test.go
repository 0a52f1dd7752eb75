package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/lunch-order-api/internal/database"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/logging"
	"github.com/yukikurage/lunch-order-api/internal/metrics"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/permission"
	"github.com/yukikurage/lunch-order-api/internal/repository"
	"github.com/yukikurage/lunch-order-api/internal/testutil"
	"github.com/yukikurage/lunch-order-api/internal/utils"
)

type OrderServiceTestSuite struct {
	suite.Suite
	conn    *database.Conn
	fx      *testutil.Fixture
	service *OrderService
	ctx     context.Context
	now     time.Time

	company *models.Company
	bento   *models.Menu
	curry   *models.Menu
	alice   *models.User
	bob     *models.User
	staff   *models.User
	admin   *models.User
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.conn = testutil.NewConn(suite.T())
	suite.fx = testutil.NewFixture(suite.T(), suite.conn)
	suite.service = suite.newService()
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 3, 10, 12, 0, 0, 0, jst)

	suite.company = suite.fx.Company("acme", "bento")
	suite.bento = suite.fx.Menu("bento", "karaage", 600)
	suite.curry = suite.fx.Menu("curry", "katsu", 800)
	suite.alice = suite.fx.User("alice", permission.User, suite.bento, suite.company)
	suite.bob = suite.fx.User("bob", permission.User, suite.bento, suite.company)
	suite.staff = suite.fx.User("staff", permission.ShopStaff, suite.bento, nil)
	suite.admin = suite.fx.User("admin", permission.Admin, nil, nil)
}

func (suite *OrderServiceTestSuite) newService() *OrderService {
	return NewOrderService(
		repository.NewOrderRepository(suite.conn),
		repository.NewUserRepository(suite.conn),
		repository.NewMenuRepository(suite.conn),
		PolicyFromMap(permission.DefaultMap()),
		jst,
		logging.Discard(),
		metrics.New(),
	)
}

func requester(u *models.User) Requester {
	return Requester{Username: u.Username, Permission: u.Permission}
}

func (suite *OrderServiceTestSuite) TestSubmitOrder() {
	order, err := suite.service.SubmitOrder(suite.ctx, "alice", 2, suite.now)
	suite.Require().NoError(err)

	suite.Equal(suite.alice.ID, order.UserID)
	suite.Equal("bento", order.ShopName)
	suite.Equal(1200, order.Total)
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal(&suite.company.ID, order.CompanyID)
	suite.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), order.CreatedAt)
	suite.Require().NotNil(order.ActiveSlot)
	suite.Equal("2024-03-10", *order.ActiveSlot)
}

func (suite *OrderServiceTestSuite) TestSubmitOrderRejectsSecondOrderSameDay() {
	_, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	_, err = suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now.Add(3*time.Hour))
	suite.ErrorIs(err, repository.ErrDuplicateOrder)

	status, body := apierrors.Translate(err)
	suite.Equal(400, status)
	suite.Equal("ERROR_FORBIDDEN_SECOND_ORDER", body.Code)
}

func (suite *OrderServiceTestSuite) TestSubmitOrderNextDayIsAllowed() {
	_, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	// 00:30 JST the next day is still the 10th in UTC.
	nextDay := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	_, err = suite.service.SubmitOrder(suite.ctx, "alice", 1, nextDay)
	suite.NoError(err)
}

func (suite *OrderServiceTestSuite) TestSubmitOrderConcurrent() {
	const n = 10

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
		}(i)
	}
	wg.Wait()

	suite.assertOneWinner(errs)
}

func (suite *OrderServiceTestSuite) TestSubmitOrderConcurrentAcrossServices() {
	const n = 6

	// Separate services share no in-process lock, so the transactional check
	// in CreateUnique decides. The test connection is single-writer; the
	// unique-index fallback is covered in order_repository_test.go.
	services := []*OrderService{suite.service, suite.newService(), suite.newService()}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = services[i%len(services)].SubmitOrder(suite.ctx, "alice", 1, suite.now)
		}(i)
	}
	wg.Wait()

	suite.assertOneWinner(errs)
}

func (suite *OrderServiceTestSuite) assertOneWinner(errs []error) {
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.ErrorIs(err, repository.ErrDuplicateOrder)
	}
	suite.Equal(1, succeeded)

	orders, err := suite.service.ListForUser(suite.ctx, "alice", 0, suite.now)
	suite.Require().NoError(err)
	suite.Len(orders, 1)
}

func (suite *OrderServiceTestSuite) TestSubmitOrderValidation() {
	_, err := suite.service.SubmitOrder(suite.ctx, "alice", 0, suite.now)
	suite.ErrorIs(err, ErrInvalidAmount)

	_, err = suite.service.SubmitOrder(suite.ctx, "nobody", 1, suite.now)
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = suite.service.SubmitOrder(suite.ctx, "admin", 1, suite.now)
	suite.ErrorIs(err, ErrNoShopAssigned)

	suite.fx.DisableMenu(suite.bento)
	_, err = suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.ErrorIs(err, ErrMenuUnavailable)
}

func (suite *OrderServiceTestSuite) TestCancelOrderByOwnerAllowsReorder() {
	order, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	cancelled, err := suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.alice), suite.now.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusCancelled, cancelled.Status)

	stored := suite.fx.Reload(order.ID)
	suite.Equal(models.OrderStatusCancelled, stored.Status)
	suite.Nil(stored.ActiveSlot)

	_, err = suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now.Add(2*time.Minute))
	suite.NoError(err)
}

func (suite *OrderServiceTestSuite) TestCancelOrderPolicy() {
	order, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	_, err = suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.bob), suite.now)
	suite.ErrorIs(err, ErrNotOrderOwner)
	suite.Equal(apierrors.KindNotAuthorized, apierrors.KindOf(err))

	_, err = suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.staff), suite.now)
	suite.ErrorIs(err, ErrNotOrderOwner)

	_, err = suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.admin), suite.now)
	suite.NoError(err)
}

func (suite *OrderServiceTestSuite) TestCancelOrderConfigurablePolicy() {
	m := permission.DefaultMap()
	m[permission.GateCancelAny] = permission.NewSet(permission.ShopStaff, permission.Admin)
	suite.service.policy = PolicyFromMap(m)

	order, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	_, err = suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.staff), suite.now)
	suite.NoError(err)
}

func (suite *OrderServiceTestSuite) TestCancelOrderTerminalStates() {
	order, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	_, err = suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.alice), suite.now)
	suite.Require().NoError(err)

	_, err = suite.service.CancelOrder(suite.ctx, order.ID, requester(suite.alice), suite.now)
	suite.ErrorIs(err, ErrInvalidTransition)

	_, err = suite.service.CancelOrder(suite.ctx, 999, requester(suite.alice), suite.now)
	suite.ErrorIs(err, ErrOrderNotFound)
}

func (suite *OrderServiceTestSuite) TestListForShopNewestFirst() {
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	t1 := suite.fx.Order(suite.rawOrder(suite.alice, base.Add(1*time.Hour)))
	t3 := suite.fx.Order(suite.rawOrder(suite.staff, base.Add(3*time.Hour)))
	t2 := suite.fx.Order(suite.rawOrder(suite.bob, base.Add(2*time.Hour)))

	orders, err := suite.service.ListForShop(suite.ctx, "bento", 0, "", suite.now)
	suite.Require().NoError(err)

	suite.Require().Len(orders, 3)
	suite.Equal([]uint64{t3.ID, t2.ID, t1.ID}, []uint64{orders[0].ID, orders[1].ID, orders[2].ID})

	orders, err = suite.service.ListForShop(suite.ctx, "bento", 0, "staff", suite.now)
	suite.Require().NoError(err)
	suite.Equal([]uint64{t2.ID, t1.ID}, []uint64{orders[0].ID, orders[1].ID})
}

func (suite *OrderServiceTestSuite) TestListForManagerIncludesYesterday() {
	yesterday := suite.fx.Order(suite.rawOrder(suite.alice, time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)))
	today := suite.fx.Order(suite.rawOrder(suite.bob, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))
	suite.fx.Order(suite.rawOrder(suite.alice, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)))

	manager := suite.fx.User("manager", permission.Manager, suite.bento, suite.company)

	orders, err := suite.service.ListForManager(suite.ctx, requester(manager), suite.now)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 2)
	suite.Equal(today.ID, orders[0].ID)
	suite.Equal(yesterday.ID, orders[1].ID)
}

func (suite *OrderServiceTestSuite) TestListForShopOfIgnoresOverrideForStaff() {
	suite.fx.Order(suite.rawOrder(suite.alice, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))

	shop, orders, err := suite.service.ListForShopOf(suite.ctx, requester(suite.staff), "curry", suite.now)
	suite.Require().NoError(err)
	suite.Equal("bento", shop)
	suite.Len(orders, 1)

	shop, orders, err = suite.service.ListForShopOf(suite.ctx, requester(suite.admin), "curry", suite.now)
	suite.Require().NoError(err)
	suite.Equal("curry", shop)
	suite.Empty(orders)
}

func (suite *OrderServiceTestSuite) TestListAllPaginates() {
	suite.fx.Order(suite.rawOrder(suite.alice, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))
	suite.fx.Order(suite.rawOrder(suite.bob, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)))

	orders, total, err := suite.service.ListAll(suite.ctx, 0, utils.PaginationParams{Page: 1, Limit: 1}, suite.now)
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(orders, 1)
}

func (suite *OrderServiceTestSuite) TestBulkUpdateCheckedIsolatesFailures() {
	order, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)

	results := suite.service.BulkUpdateChecked(suite.ctx, requester(suite.admin), []CheckedUpdate{
		{OrderID: order.ID, Checked: true},
		{OrderID: 999, Checked: true},
	}, suite.now)

	suite.Require().Len(results, 2)
	suite.Equal(order.ID, results[0].OrderID)
	suite.True(results[0].Success())
	suite.Equal(uint64(999), results[1].OrderID)
	suite.False(results[1].Success())
	suite.ErrorIs(results[1].Err, ErrOrderNotFound)

	stored := suite.fx.Reload(order.ID)
	suite.Equal(models.OrderStatusCompleted, stored.Status)
	suite.True(stored.Checked)
}

func (suite *OrderServiceTestSuite) TestBulkUpdateCheckedOwnShopOnly() {
	curryUser := suite.fx.User("dave", permission.User, suite.curry, nil)
	bentoOrder, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)
	curryOrder, err := suite.service.SubmitOrder(suite.ctx, curryUser.Username, 1, suite.now)
	suite.Require().NoError(err)

	results := suite.service.BulkUpdateChecked(suite.ctx, requester(suite.staff), []CheckedUpdate{
		{OrderID: curryOrder.ID, Checked: true},
		{OrderID: bentoOrder.ID, Checked: true},
		{OrderID: bentoOrder.ID, Checked: false},
	}, suite.now)

	suite.ErrorIs(results[0].Err, ErrOtherShopsOrder)
	suite.NoError(results[1].Err)
	suite.ErrorIs(results[2].Err, ErrAlreadyCompleted)
}

func (suite *OrderServiceTestSuite) TestBulkUpdateCanceled() {
	aliceOrder, err := suite.service.SubmitOrder(suite.ctx, "alice", 1, suite.now)
	suite.Require().NoError(err)
	bobOrder, err := suite.service.SubmitOrder(suite.ctx, "bob", 1, suite.now)
	suite.Require().NoError(err)

	results := suite.service.BulkUpdateCanceled(suite.ctx, requester(suite.alice), []CancelUpdate{
		{OrderID: aliceOrder.ID, Canceled: true},
		{OrderID: bobOrder.ID, Canceled: true},
		{OrderID: aliceOrder.ID, Canceled: false},
		{OrderID: 999, Canceled: true},
	}, suite.now)

	suite.Require().Len(results, 4)
	suite.True(results[0].Success())
	suite.ErrorIs(results[1].Err, ErrNotOrderOwner)
	suite.ErrorIs(results[2].Err, ErrNotCancelled)
	suite.ErrorIs(results[3].Err, ErrOrderNotFound)

	suite.Equal(models.OrderStatusPending, suite.fx.Reload(bobOrder.ID).Status)
}

func (suite *OrderServiceTestSuite) rawOrder(user *models.User, createdAt time.Time) *models.Order {
	return &models.Order{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		ShopName:  *user.ShopName,
		MenuID:    *user.MenuID,
		Amount:    1,
		Total:     600,
		Status:    models.OrderStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
