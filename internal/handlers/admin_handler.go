package handlers

import (
	"resto/internal/apperrors"
	"resto/internal/middleware"
	"resto/internal/models"
	"resto/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves the merchant dashboard routes.
type AdminHandler struct {
	orders          *services.OrderService
	menu            *services.MenuService
	requireMerchant fiber.Handler
	log             logrus.FieldLogger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(orders *services.OrderService, menu *services.MenuService, auth middleware.Authenticator, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		orders:          orders,
		menu:            menu,
		requireMerchant: middleware.RequireMerchant(auth),
		log:             log,
	}
}

// RegisterRoutes registers the merchant routes under /admin.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	admin := router.Group("/admin", h.requireMerchant)
	admin.Get("/orders", h.HandleGetOrders)
	admin.Patch("/orders/:id/status", h.HandleUpdateOrderStatus)
	admin.Get("/menu", h.HandleGetMenu)
	admin.Post("/menu", h.HandleCreateDish)
	admin.Patch("/menu/:id", h.HandleUpdateDish)
}

// UpdateStatusRequest represents the request body for changing an order's status.
type UpdateStatusRequest struct {
	Status *models.OrderStatus `json:"status"`
}

// HandleGetOrders lists every order, newest first.
func (h *AdminHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.GetAllOrders(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(toOrderViews(orders))
}

// HandleUpdateOrderStatus moves an order to a new status.
func (h *AdminHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if req.Status == nil {
		return apperrors.Validation("status field required")
	}

	order, err := h.orders.UpdateOrderStatus(c.UserContext(), id, *req.Status)
	if err != nil {
		return err
	}

	merchant, _ := middleware.CurrentMerchant(c)
	h.log.WithFields(logrus.Fields{
		"order_id":    id,
		"status":      order.Status,
		"merchant_id": merchant.ID,
	}).Info("Order status updated")
	return c.JSON(order)
}

// HandleGetMenu lists every dish, including unavailable ones.
func (h *AdminHandler) HandleGetMenu(c *fiber.Ctx) error {
	dishes, err := h.menu.ListMenu(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dishes)
}

// HandleCreateDish adds a dish to the menu.
func (h *AdminHandler) HandleCreateDish(c *fiber.Ctx) error {
	var input models.DishInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(err)
	}

	dish, err := h.menu.CreateDish(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dish)
}

// HandleUpdateDish applies a partial update to a dish.
func (h *AdminHandler) HandleUpdateDish(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var patch models.DishPatch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(err)
	}

	dish, err := h.menu.UpdateDish(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(dish)
}
