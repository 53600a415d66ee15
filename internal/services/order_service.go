package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resto/internal/apperrors"
	"resto/internal/metrics"
	"resto/internal/models"
	"resto/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Routing keys of the order lifecycle events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPickupAcknowledged = "order.pickup_acknowledged"
)

// EventPublisher delivers order lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// OrderEvent is the payload published for every order lifecycle event.
type OrderEvent struct {
	OrderID        uint               `json:"orderId"`
	UserID         *uint              `json:"userId,omitempty"`
	Status         models.OrderStatus `json:"status"`
	Total          decimal.Decimal    `json:"total"`
	Items          []models.OrderItem `json:"items,omitempty"`
	PickupNotified bool               `json:"pickupNotified"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	store     repositories.Store
	publisher EventPublisher
	log       logrus.FieldLogger
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(store repositories.Store, publisher EventPublisher, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// CreateOrder places an order for the given lines inside one transaction. Every dish must
// exist and be available; otherwise nothing is persisted. Unit prices are frozen at the
// dish's current price and the total is computed once.
func (s *OrderService) CreateOrder(ctx context.Context, lines []models.OrderLine, ownerUserID *uint) (*models.Order, error) {
	if len(lines) == 0 {
		metrics.RecordOrderRejected("validation")
		return nil, apperrors.Validation("order must contain at least one item")
	}
	for i, line := range lines {
		if line.Quantity <= 0 {
			metrics.RecordOrderRejected("validation")
			return nil, apperrors.Validation("item %d: quantity must be positive", i)
		}
	}

	var order *models.Order
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		header := &models.Order{
			UserID: ownerUserID,
			Status: models.StatusPending,
			Total:  decimal.Zero,
		}
		if err := tx.Orders().Create(ctx, header); err != nil {
			return fmt.Errorf("failed to create order header: %w", err)
		}

		total := decimal.Zero
		for _, line := range lines {
			dish, err := tx.Dishes().GetByID(ctx, line.DishID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return fmt.Errorf("dish %d does not exist: %w", line.DishID, apperrors.ErrInvalidOrder)
				}
				return err
			}
			if !dish.IsAvailable {
				return fmt.Errorf("dish %d (%s) is not available: %w", dish.ID, dish.Name, apperrors.ErrInvalidOrder)
			}

			item := &models.OrderItem{
				OrderID:   header.ID,
				DishID:    dish.ID,
				Quantity:  line.Quantity,
				UnitPrice: dish.Price,
			}
			if err := tx.Orders().AddItem(ctx, item); err != nil {
				return fmt.Errorf("failed to add dish %d to order: %w", dish.ID, err)
			}
			total = total.Add(dish.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		if err := tx.Orders().SetTotal(ctx, header.ID, total); err != nil {
			return fmt.Errorf("failed to set order total: %w", err)
		}

		created, err := tx.Orders().GetByID(ctx, header.ID)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidOrder) {
			metrics.RecordOrderRejected("invalid_order")
		} else {
			metrics.RecordOrderRejected("storage")
		}
		return nil, apperrors.Storage("create order", err)
	}

	metrics.RecordOrderCreated(order.Total.InexactFloat64())
	s.log.WithFields(logrus.Fields{"order_id": order.ID, "total": order.Total.String()}).Info("Order created")
	s.publish(ctx, EventOrderCreated, order)
	return order, nil
}

// GetOrder retrieves a single order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.store.Orders().GetByID(ctx, id)
}

// GetAllOrders retrieves every order, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.Orders().GetAll(ctx)
}

// GetOrdersByUser retrieves the orders owned by userID, newest first.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.store.Orders().GetByUserID(ctx, userID)
}

// UpdateOrderStatus moves an order to status. Any of the four statuses may follow any other.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("invalid order status: %q", status)
	}

	if err := s.store.Orders().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %d: %w", id, err)
	}
	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.RecordStatusChange(string(status))
	s.publish(ctx, EventOrderStatusChanged, order)
	return order, nil
}

// MarkPickupNotified records that the customer collected the order. Repeated calls succeed
// without further effect.
func (s *OrderService) MarkPickupNotified(ctx context.Context, id uint) error {
	changed, err := s.store.Orders().MarkPickupNotified(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge pickup for order %d: %w", id, err)
	}
	if !changed {
		return nil
	}

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("order_id", id).Warn("Pickup acknowledged but order could not be reloaded")
		return nil
	}
	s.publish(ctx, EventPickupAcknowledged, order)
	return nil
}

// publish sends an event after the change is committed. Failures are logged, never returned.
func (s *OrderService) publish(ctx context.Context, routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := OrderEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		Total:          order.Total,
		PickupNotified: order.PickupNotified,
		OccurredAt:     time.Now().UTC(),
	}
	if routingKey == EventOrderCreated {
		event.Items = order.Items
	}

	entry := s.log.WithFields(logrus.Fields{"order_id": order.ID, "event": routingKey})
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		entry.WithError(err).Warn("Failed to publish order event")
		return
	}
	entry.Debug("Published order event")
}
