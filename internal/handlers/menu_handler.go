package handlers

import (
	"resto/internal/models"
	"resto/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// MenuHandler serves the public menu.
type MenuHandler struct {
	service *services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(service *services.MenuService) *MenuHandler {
	return &MenuHandler{service: service}
}

// RegisterRoutes registers the menu routes with the Fiber app.
func (h *MenuHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/menu", h.HandleGetMenu)
}

// MenuItem is a dish as customers see it.
type MenuItem struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

func toMenuItems(dishes []models.Dish) []MenuItem {
	items := make([]MenuItem, 0, len(dishes))
	for _, d := range dishes {
		items = append(items, MenuItem{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			Price:       d.Price,
		})
	}
	return items
}

// HandleGetMenu lists the dishes currently available to order.
func (h *MenuHandler) HandleGetMenu(c *fiber.Ctx) error {
	dishes, err := h.service.ListAvailable(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(toMenuItems(dishes))
}
