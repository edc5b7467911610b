package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canteen/internal/domain"
	applog "canteen/internal/log"
	"canteen/internal/services"
	"canteen/internal/validate"
)

type AdminHandler struct {
	Orders  *services.OrderService
	Queries *services.OrderQueryService
}

type statusBody struct {
	Status        string  `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

func (b statusBody) parse() (domain.OrderStatus, *domain.PaymentStatus) {
	status, _ := validate.Status(b.Status)
	if b.PaymentStatus == nil {
		return status, nil
	}
	p, _ := validate.PaymentStatus(*b.PaymentStatus)
	return status, &p
}

// PATCH /api/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	return h.changeStatus(c, false)
}

// POST /api/orders/:id/force-status
func (h *AdminHandler) ForceOrderStatus(c *fiber.Ctx) error {
	return h.changeStatus(c, true)
}

func (h *AdminHandler) changeStatus(c *fiber.Ctx, force bool) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	var body statusBody
	if err := c.BodyParser(&body); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	status, payment := body.parse()

	action := "admin.orders.update"
	update := h.Orders.UpdateStatus
	if force {
		action = "admin.orders.force"
		update = h.Orders.ForceStatus
	}
	o, err := update(c.UserContext(), id, status, payment)
	if err != nil {
		return apiError(c, action, err)
	}
	applog.Audit(c, action, map[string]any{
		"order_id":       o.ID,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
	})
	return c.JSON(toOrderView(o))
}

// GET /api/admin/summary
func (h *AdminHandler) Summary(c *fiber.Ctx) error {
	s, err := h.Queries.Summary(c.UserContext(), currentUser(c).Viewer())
	if err != nil {
		return apiError(c, "admin.summary", err)
	}
	return c.JSON(fiber.Map{
		"pendingOrders":   s.Pending,
		"activeOrders":    s.Active,
		"completedOrders": s.Completed,
		"cancelledOrders": s.Cancelled,
		"products":        s.Products,
	})
}
