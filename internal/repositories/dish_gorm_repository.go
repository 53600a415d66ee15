package repositories

import (
	"context"
	"errors"
	"fmt"

	"resto/internal/apperrors"
	"resto/internal/models"

	"gorm.io/gorm"
)

// GORMDishRepository is a GORM implementation of DishRepository.
type GORMDishRepository struct {
	db *gorm.DB
}

// NewGORMDishRepository creates a new instance of GORMDishRepository.
func NewGORMDishRepository(db *gorm.DB) *GORMDishRepository {
	return &GORMDishRepository{
		db: db,
	}
}

// GetAll retrieves every dish ordered by id.
func (r *GORMDishRepository) GetAll(ctx context.Context) ([]models.Dish, error) {
	var dishes []models.Dish
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&dishes).Error; err != nil {
		return nil, apperrors.Storage("get all dishes", err)
	}
	return dishes, nil
}

// GetByID retrieves a single dish by its ID.
func (r *GORMDishRepository) GetByID(ctx context.Context, id uint) (*models.Dish, error) {
	var dish models.Dish
	if err := r.db.WithContext(ctx).First(&dish, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("dish with ID %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage(fmt.Sprintf("get dish by ID %d", id), err)
	}
	return &dish, nil
}

// Create inserts a new dish and fills in its generated ID.
func (r *GORMDishRepository) Create(ctx context.Context, dish *models.Dish) error {
	if err := r.db.WithContext(ctx).Create(dish).Error; err != nil {
		return apperrors.Storage("create dish", err)
	}
	return nil
}

// Update writes every editable column of dish, including zero values.
func (r *GORMDishRepository) Update(ctx context.Context, dish *models.Dish) error {
	res := r.db.WithContext(ctx).Model(dish).
		Select("name", "description", "category", "price", "is_available", "updated_at").
		Updates(dish)
	if res.Error != nil {
		return apperrors.Storage("update dish", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dish with ID %d not found for update: %w", dish.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Count returns the number of dishes on the menu.
func (r *GORMDishRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Dish{}).Count(&n).Error; err != nil {
		return 0, apperrors.Storage("count dishes", err)
	}
	return n, nil
}
