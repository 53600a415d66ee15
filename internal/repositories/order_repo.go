package repositories

import (
	"context"

	"resto/internal/models"

	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order data access.
// Create, AddItem and SetTotal are the building blocks of order placement and are
// expected to run inside Store.Transaction.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	SetTotal(ctx context.Context, id uint, total decimal.Decimal) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUserID(ctx context.Context, userID uint) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	// MarkPickupNotified sets pickup_notified and reports whether the flag changed.
	MarkPickupNotified(ctx context.Context, id uint) (bool, error)
}
