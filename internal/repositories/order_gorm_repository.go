package repositories

import (
	"context"
	"errors"
	"fmt"

	"resto/internal/apperrors"
	"resto/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func itemsInInsertOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// Create inserts the order header only; items are added with AddItem.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items", "User").Create(order).Error; err != nil {
		return apperrors.Storage("create order", err)
	}
	return nil
}

func (r *GORMOrderRepository) AddItem(ctx context.Context, item *models.OrderItem) error {
	if err := r.db.WithContext(ctx).Omit("Dish").Create(item).Error; err != nil {
		return apperrors.Storage(fmt.Sprintf("add item to order %d", item.OrderID), err)
	}
	return nil
}

func (r *GORMOrderRepository) SetTotal(ctx context.Context, id uint, total decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("total", total)
	if res.Error != nil {
		return apperrors.Storage(fmt.Sprintf("set total of order %d", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// GetByID returns an order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsInInsertOrder).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage(fmt.Sprintf("get order by ID %d", id), err)
	}
	return &order, nil
}

// GetAll returns every order, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsInInsertOrder).Order("id DESC").Find(&orders).Error
	if err != nil {
		return nil, apperrors.Storage("get all orders", err)
	}
	return orders, nil
}

// GetByUserID returns the orders placed by userID, newest first.
func (r *GORMOrderRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsInInsertOrder).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("get orders of user %d", userID), err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperrors.Storage(fmt.Sprintf("update status of order %d", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %d not found for status update: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *GORMOrderRepository) MarkPickupNotified(ctx context.Context, id uint) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Order{}).
		Where("id = ? AND pickup_notified = ?", id, false).
		Update("pickup_notified", true)
	if res.Error != nil {
		return false, apperrors.Storage(fmt.Sprintf("mark pickup of order %d", id), res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var n int64
	if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, apperrors.Storage(fmt.Sprintf("look up order %d", id), err)
	}
	if n == 0 {
		return false, fmt.Errorf("order with ID %d: %w", id, apperrors.ErrNotFound)
	}
	return false, nil
}
