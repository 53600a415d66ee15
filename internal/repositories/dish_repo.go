package repositories

import (
	"context"

	"resto/internal/models"
)

// DishRepository defines the interface for menu data access.
type DishRepository interface {
	GetAll(ctx context.Context) ([]models.Dish, error)
	GetByID(ctx context.Context, id uint) (*models.Dish, error)
	Create(ctx context.Context, dish *models.Dish) error
	Update(ctx context.Context, dish *models.Dish) error
	Count(ctx context.Context) (int64, error)
}
