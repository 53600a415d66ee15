package services

import (
	"context"
	"fmt"

	"resto/internal/apperrors"
	"resto/internal/models"
	"resto/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MenuService handles business logic related to dishes.
type MenuService struct {
	store    repositories.Store
	validate *validator.Validate
	log      logrus.FieldLogger
}

// NewMenuService creates a new MenuService.
func NewMenuService(store repositories.Store, log logrus.FieldLogger) *MenuService {
	return &MenuService{
		store:    store,
		validate: NewValidator(),
		log:      log,
	}
}

// ListMenu retrieves every dish, ordered by id.
func (s *MenuService) ListMenu(ctx context.Context) ([]models.Dish, error) {
	return s.store.Dishes().GetAll(ctx)
}

// ListAvailable retrieves the dishes customers can currently order.
func (s *MenuService) ListAvailable(ctx context.Context) ([]models.Dish, error) {
	dishes, err := s.ListMenu(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]models.Dish, 0, len(dishes))
	for _, d := range dishes {
		if d.IsAvailable {
			available = append(available, d)
		}
	}
	return available, nil
}

// GetDish retrieves a single dish by its ID.
func (s *MenuService) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	return s.store.Dishes().GetByID(ctx, id)
}

// CreateDish adds a dish to the menu. New dishes are available unless the input says otherwise.
func (s *MenuService) CreateDish(ctx context.Context, input models.DishInput) (*models.Dish, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if err := checkPrice(input.Price); err != nil {
		return nil, err
	}

	dish := &models.Dish{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		IsAvailable: true,
	}
	if input.IsAvailable != nil {
		dish.IsAvailable = *input.IsAvailable
	}

	if err := s.store.Dishes().Create(ctx, dish); err != nil {
		return nil, fmt.Errorf("failed to create dish: %w", err)
	}
	s.log.WithFields(logrus.Fields{"dish_id": dish.ID, "name": dish.Name}).Info("Dish created")
	return dish, nil
}

// UpdateDish applies patch to the dish with the given id. An empty patch changes nothing.
func (s *MenuService) UpdateDish(ctx context.Context, id uint, patch models.DishPatch) (*models.Dish, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, apperrors.Validation("name must not be empty")
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return nil, err
		}
	}

	dish, err := s.store.Dishes().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return dish, nil
	}

	patch.Apply(dish)
	if err := s.store.Dishes().Update(ctx, dish); err != nil {
		return nil, fmt.Errorf("failed to update dish %d: %w", id, err)
	}
	return dish, nil
}

func checkPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperrors.Validation("price must be greater than 0")
	}
	// Prices are stored as decimal(10,2).
	if !price.Equal(price.Round(2)) {
		return apperrors.Validation("price must have at most 2 decimal places")
	}
	return nil
}
