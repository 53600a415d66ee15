package services_test

import (
	"context"
	"errors"
	"testing"

	"resto/internal/apperrors"
	"resto/internal/models"
	"resto/internal/repositories"
	"resto/internal/services"
	"resto/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	store  repositories.Store
	menu   *services.MenuService
	orders *services.OrderService
	auth   *services.AuthService
	userID uint
}

func newOrderFixture(t *testing.T, newStore func(t *testing.T) repositories.Store, publisher services.EventPublisher) *orderFixture {
	t.Helper()
	ctx := context.Background()
	store := seededStore(t, newStore)
	f := &orderFixture{
		store:  store,
		menu:   services.NewMenuService(store, logger.Discard()),
		orders: services.NewOrderService(store, publisher, logger.Discard()),
		auth:   newAuthService(store),
	}
	require.NoError(t, f.auth.RegisterUser(ctx, "abcd1234", "secret1", ""))
	user, err := store.Users().GetByUsername(ctx, "abcd1234")
	require.NoError(t, err)
	f.userID = user.ID
	return f
}

func TestOrderService_TeaScenario(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newOrderFixture(t, newStore, nil)

			tea, err := f.menu.CreateDish(ctx, models.DishInput{Name: "Tea", Price: decimal.RequireFromString("2.5"), IsAvailable: ptr(true)})
			require.NoError(t, err)
			require.Equal(t, uint(11), tea.ID)

			order, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 11, Quantity: 3}}, &f.userID)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString("7.5").Equal(order.Total), "total was %s", order.Total)
			assert.Equal(t, models.StatusPending, order.Status)
			assert.False(t, order.PickupNotified)
			require.Len(t, order.Items, 1)
			assert.Equal(t, 3, order.Items[0].Quantity)
			assert.True(t, decimal.RequireFromString("2.5").Equal(order.Items[0].UnitPrice))
			assert.True(t, order.OwnedBy(f.userID))

			updated, err := f.orders.UpdateOrderStatus(ctx, order.ID, models.StatusPreparing)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPreparing, updated.Status)
			assert.True(t, order.Total.Equal(updated.Total))
		})
	}
}

func TestOrderService_TotalIsSnapshot(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newOrderFixture(t, newStore, nil)

			order, err := f.orders.CreateOrder(ctx, []models.OrderLine{
				{DishID: 1, Quantity: 2},
				{DishID: 3, Quantity: 1},
				{DishID: 1, Quantity: 1},
			}, &f.userID)
			require.NoError(t, err)
			require.Len(t, order.Items, 3)

			sum := decimal.Zero
			for _, item := range order.Items {
				sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
			assert.True(t, sum.Equal(order.Total))
			// Items keep input order.
			assert.Equal(t, []uint{1, 3, 1}, []uint{order.Items[0].DishID, order.Items[1].DishID, order.Items[2].DishID})

			_, err = f.menu.UpdateDish(ctx, 1, models.DishPatch{Price: ptr(decimal.NewFromInt(100))})
			require.NoError(t, err)

			reloaded, err := f.orders.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.True(t, order.Total.Equal(reloaded.Total))
			assert.True(t, order.Items[0].UnitPrice.Equal(reloaded.Items[0].UnitPrice))
		})
	}
}

func TestOrderService_AllOrNothing(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newOrderFixture(t, newStore, nil)

			_, err := f.menu.UpdateDish(ctx, 4, models.DishPatch{IsAvailable: ptr(false)})
			require.NoError(t, err)

			_, err = f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}, {DishID: 999, Quantity: 1}}, &f.userID)
			assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)

			_, err = f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}, {DishID: 4, Quantity: 2}}, &f.userID)
			assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)

			all, err := f.orders.GetAllOrders(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			if gs, ok := f.store.(*repositories.GORMStore); ok {
				var items int64
				require.NoError(t, gs.DB().Model(&models.OrderItem{}).Count(&items).Error)
				assert.Zero(t, items)
			}

			// A valid order afterwards still gets a fresh, complete record.
			order, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}}, &f.userID)
			require.NoError(t, err)
			assert.Len(t, order.Items, 1)
		})
	}
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t, storeFactories["memory"], nil)

	tests := []struct {
		name  string
		lines []models.OrderLine
	}{
		{"nil", nil},
		{"empty", []models.OrderLine{}},
		{"zero quantity", []models.OrderLine{{DishID: 1, Quantity: 0}}},
		{"negative quantity", []models.OrderLine{{DishID: 1, Quantity: 2}, {DishID: 2, Quantity: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tt.lines, &f.userID)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	all, err := f.orders.GetAllOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOrderService_Listing(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newOrderFixture(t, newStore, nil)
			require.NoError(t, f.auth.RegisterUser(ctx, "wxyz9876", "secret1", ""))
			other, err := f.store.Users().GetByUsername(ctx, "wxyz9876")
			require.NoError(t, err)

			first, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}}, &f.userID)
			require.NoError(t, err)
			_, err = f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 2, Quantity: 1}}, &other.ID)
			require.NoError(t, err)
			anonymous, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 3, Quantity: 1}}, nil)
			require.NoError(t, err)
			assert.Nil(t, anonymous.UserID)
			third, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 4, Quantity: 2}}, &f.userID)
			require.NoError(t, err)

			all, err := f.orders.GetAllOrders(ctx)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, third.ID, all[0].ID)
			assert.Equal(t, first.ID, all[3].ID)
			assert.Len(t, all[0].Items, 1)

			mine, err := f.orders.GetOrdersByUser(ctx, f.userID)
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, third.ID, mine[0].ID)
			assert.Equal(t, first.ID, mine[1].ID)

			_, err = f.orders.GetOrder(ctx, 999)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
		})
	}
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newOrderFixture(t, newStore, nil)
			order, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}}, &f.userID)
			require.NoError(t, err)

			_, err = f.orders.UpdateOrderStatus(ctx, order.ID, "shipped")
			assert.ErrorIs(t, err, apperrors.ErrValidation)

			_, err = f.orders.UpdateOrderStatus(ctx, 999, models.StatusReady)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)

			// Any status may follow any other.
			for _, status := range []models.OrderStatus{models.StatusCompleted, models.StatusPending, models.StatusReady} {
				updated, err := f.orders.UpdateOrderStatus(ctx, order.ID, status)
				require.NoError(t, err)
				assert.Equal(t, status, updated.Status)
			}
		})
	}
}

func TestOrderService_MarkPickupNotified(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newOrderFixture(t, newStore, nil)
			order, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}}, &f.userID)
			require.NoError(t, err)

			_, err = f.orders.UpdateOrderStatus(ctx, order.ID, models.StatusCompleted)
			require.NoError(t, err)
			completed, err := f.orders.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.True(t, completed.PickupReady())

			require.NoError(t, f.orders.MarkPickupNotified(ctx, order.ID))
			require.NoError(t, f.orders.MarkPickupNotified(ctx, order.ID))

			acked, err := f.orders.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.True(t, acked.PickupNotified)
			assert.False(t, acked.PickupReady())

			assert.ErrorIs(t, f.orders.MarkPickupNotified(ctx, 999), apperrors.ErrNotFound)
		})
	}
}

func TestOrderService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	publisher := new(MockPublisher)
	f := newOrderFixture(t, storeFactories["memory"], publisher)

	publisher.On("Publish", services.EventOrderCreated, mock.MatchedBy(func(e services.OrderEvent) bool {
		return e.Status == models.StatusPending && len(e.Items) == 1 && e.Total.Equal(decimal.RequireFromString("17"))
	})).Return(nil).Once()
	order, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 2}}, &f.userID)
	require.NoError(t, err)

	publisher.On("Publish", services.EventOrderStatusChanged, mock.MatchedBy(func(e services.OrderEvent) bool {
		return e.OrderID == order.ID && e.Status == models.StatusCompleted
	})).Return(nil).Once()
	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, models.StatusCompleted)
	require.NoError(t, err)

	// Only the first acknowledgment is announced.
	publisher.On("Publish", services.EventPickupAcknowledged, mock.MatchedBy(func(e services.OrderEvent) bool {
		return e.OrderID == order.ID && e.PickupNotified
	})).Return(nil).Once()
	require.NoError(t, f.orders.MarkPickupNotified(ctx, order.ID))
	require.NoError(t, f.orders.MarkPickupNotified(ctx, order.ID))

	// Rejected orders publish nothing.
	_, err = f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 999, Quantity: 1}}, &f.userID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)

	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 3)
}

func TestOrderService_PublishFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	publisher := new(MockPublisher)
	publisher.On("Publish", services.EventOrderCreated, mock.Anything).Return(errors.New("broker down")).Once()
	f := newOrderFixture(t, storeFactories["memory"], publisher)

	order, err := f.orders.CreateOrder(ctx, []models.OrderLine{{DishID: 1, Quantity: 1}}, &f.userID)
	require.NoError(t, err)

	stored, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	publisher.AssertExpectations(t)
}
