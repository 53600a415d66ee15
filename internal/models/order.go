package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a step in the fixed order lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
)

// Valid reports whether s is one of the four lifecycle statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted:
		return true
	}
	return false
}

// OrderItem represents a single line within an order.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   uint            `json:"-" gorm:"index;not null"`
	DishID    uint            `json:"dishId" gorm:"index;not null"`
	Dish      *Dish           `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(10,2);not null"` // Price at the time of order
}

// Order represents a customer order.
type Order struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         *uint           `json:"userId,omitempty" gorm:"index"`
	User           *User           `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Total          decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	PickupNotified bool            `json:"pickupNotified" gorm:"not null;default:false"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether the order belongs to the given user.
func (o *Order) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

// PickupReady reports whether a completed order still awaits the customer's pickup acknowledgment.
func (o *Order) PickupReady() bool {
	return o.Status == StatusCompleted && !o.PickupNotified
}

// OrderLine is one requested (dish, quantity) pair of a new order.
type OrderLine struct {
	DishID   uint `json:"dishId" validate:"required"`
	Quantity int  `json:"quantity"`
}
