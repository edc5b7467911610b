package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/domain"
	applog "canteen/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func notFoundPage(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// apiError maps service errors onto status codes. Unexpected errors are
// logged and answered with a generic message.
func apiError(c *fiber.Ctx, action string, err error) error {
	var ve domain.ValidationError
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": ve.Field})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, domain.ErrInvalidRequest):
		applog.Security(c, "validation.fail", map[string]any{"action": action})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundMessage(err)})
	case errors.Is(err, domain.ErrInvalidTransition):
		var te domain.TransitionError
		msg := "status change not allowed"
		if errors.As(err, &te) {
			msg = "cannot move order from " + te.From + " to " + te.To
		}
		applog.Security(c, "order.transition.rejected", map[string]any{"action": action, "reason": err.Error()})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
	case errors.Is(err, domain.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
	case errors.Is(err, domain.ErrTransactionFailed):
		applog.Error(c, action, err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Could not save right now. Please try again."})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
}

// notFoundMessage keeps only the "<kind> <id>" prefix the repos add.
func notFoundMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 {
		return msg[:i] + " not found"
	}
	return "not found"
}

type userView struct {
	ID     string      `json:"id"`
	Mobile string      `json:"mobile"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
}

func toUserView(u *domain.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{ID: u.ID, Mobile: u.Mobile, Name: u.Name, Role: u.Role}
}

type productView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	IsAvailable bool   `json:"isAvailable"`
	CreatedAt   string `json:"createdAt"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
		CreatedAt:   p.CreatedAt,
	}
}

type itemView struct {
	ID              int64        `json:"id"`
	ProductID       int64        `json:"productId"`
	ProductName     string       `json:"productName"`
	ProductCategory string       `json:"productCategory"`
	Quantity        int          `json:"quantity"`
	PriceAtTime     string       `json:"priceAtTime"`
	Subtotal        string       `json:"subtotal"`
	Product         *productView `json:"product"`
}

type orderView struct {
	ID                 int64      `json:"id"`
	OrderCode          string     `json:"orderCode"`
	UserID             string     `json:"userId"`
	Status             string     `json:"status"`
	TotalAmount        string     `json:"totalAmount"`
	PaymentMethod      string     `json:"paymentMethod"`
	PaymentMethodLabel string     `json:"paymentMethodLabel"`
	PaymentStatus      string     `json:"paymentStatus"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
	Items              []itemView `json:"items,omitempty"`
}

func toOrderView(o domain.Order) orderView {
	return orderView{
		ID:                 o.ID,
		OrderCode:          o.Code(),
		UserID:             o.UserID,
		Status:             string(o.Status),
		TotalAmount:        o.TotalAmount.StringFixed(2),
		PaymentMethod:      string(o.PaymentMethod),
		PaymentMethodLabel: o.PaymentMethod.Label(),
		PaymentStatus:      string(o.PaymentStatus),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrderDetailView(d domain.OrderDetail) orderView {
	v := toOrderView(d.Order)
	v.Items = make([]itemView, 0, len(d.Items))
	for _, it := range d.Items {
		iv := itemView{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ProductCategory: it.ProductCategory,
			Quantity:        it.Quantity,
			PriceAtTime:     it.PriceAtTime.StringFixed(2),
			Subtotal:        it.Subtotal().StringFixed(2),
		}
		if it.Product != nil {
			pv := toProductView(*it.Product)
			iv.Product = &pv
		}
		v.Items = append(v.Items, iv)
	}
	return v
}
