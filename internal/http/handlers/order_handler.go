package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canteen/internal/domain"
	applog "canteen/internal/log"
	"canteen/internal/services"
	"canteen/internal/validate"
)

type OrderHandler struct {
	Orders  *services.OrderService
	Queries *services.OrderQueryService
}

type orderLineBody struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type createOrderBody struct {
	Items         []orderLineBody `json:"items"`
	PaymentMethod string          `json:"paymentMethod"`
}

// POST /api/orders
// Only product ids and quantities are read from the client; prices and the
// total always come from the catalog.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var body createOrderBody
	if err := c.BodyParser(&body); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	method, _ := validate.PaymentMethod(body.PaymentMethod)
	req := domain.CreateOrderRequest{PaymentMethod: method, Items: make([]domain.OrderLine, len(body.Items))}
	for i, it := range body.Items {
		req.Items[i] = domain.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.Orders.CreateOrder(c.UserContext(), u.Viewer(), req)
	if err != nil {
		return apiError(c, "order.create", err)
	}
	applog.Audit(c, "order.create", map[string]any{
		"order_id": o.ID,
		"total":    o.TotalAmount.StringFixed(2),
		"lines":    len(req.Items),
		"payment":  o.PaymentMethod,
	})
	return c.Status(fiber.StatusCreated).JSON(toOrderView(o))
}

// GET /api/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	filter := c.Query("userId")
	if filter != "" && filter != u.ID && u.Role != domain.RoleAdmin {
		applog.Security(c, "access.scope.override", map[string]any{"requested_user": filter})
	}
	list, err := h.Queries.ListOrders(c.UserContext(), u.Viewer(), filter)
	if err != nil {
		return apiError(c, "order.list", err)
	}
	out := make([]orderView, len(list))
	for i, d := range list {
		out[i] = toOrderDetailView(d)
	}
	return c.JSON(fiber.Map{"orders": out})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	d, found, err := h.lookup(c)
	if err != nil {
		return apiError(c, "order.get", err)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	return c.JSON(toOrderDetailView(d))
}

// GET /orders/:id/receipt
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	d, found, err := h.lookup(c)
	if err != nil {
		applog.Error(c, "order.receipt", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your order"})
	}
	if !found {
		return notFoundPage(c, "Order not found")
	}
	return render(c, "receipt", fiber.Map{"Order": toOrderDetailView(d)})
}

// lookup reports found=false for malformed ids and for orders the current
// user may not see.
func (h *OrderHandler) lookup(c *fiber.Ctx) (domain.OrderDetail, bool, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "order"})
		return domain.OrderDetail{}, false, nil
	}
	u := currentUser(c)
	d, found, err := h.Queries.GetOrder(c.UserContext(), u.Viewer(), id)
	if err == nil && !found {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
	}
	return d, found, err
}
