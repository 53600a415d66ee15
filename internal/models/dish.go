package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching what the storefront clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// Dish represents an item on the restaurant menu.
type Dish struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    string          `json:"category" gorm:"type:varchar(50)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	IsAvailable bool            `json:"isAvailable" gorm:"not null"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DishInput carries the fields of a new dish.
type DishInput struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Category    string          `json:"category" validate:"omitempty,max=50"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"isAvailable"`
}

// DishPatch carries a partial dish update. Nil fields are left untouched.
type DishPatch struct {
	Name        *string          `json:"name" validate:"omitempty,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Category    *string          `json:"category" validate:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"isAvailable"`
}

// Empty reports whether the patch changes nothing.
func (p DishPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil && p.Price == nil && p.IsAvailable == nil
}

// Apply copies the supplied fields onto d.
func (p DishPatch) Apply(d *Dish) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Price != nil {
		d.Price = *p.Price
	}
	if p.IsAvailable != nil {
		d.IsAvailable = *p.IsAvailable
	}
}
