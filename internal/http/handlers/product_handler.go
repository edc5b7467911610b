package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"canteen/internal/domain"
	"canteen/internal/log"
	"canteen/internal/services"
	"canteen/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// productBody is shared by create and partial update; absent fields are nil.
type productBody struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"imageUrl"`
	IsAvailable *bool            `json:"isAvailable"`
}

func (b productBody) patch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:        b.Name,
		Description: b.Description,
		Price:       b.Price,
		Category:    b.Category,
		ImageURL:    b.ImageURL,
		IsAvailable: b.IsAvailable,
	}
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		return apiError(c, "products.list", err)
	}
	out := make([]productView, len(ps))
	for i, p := range ps {
		out[i] = toProductView(p)
	}
	return c.JSON(fiber.Map{"products": out})
}

// GET /api/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	p, found, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return apiError(c, "products.get", err)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(toProductView(p))
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var body productBody
	if err := c.BodyParser(&body); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Price == nil {
		return apiError(c, "products.create", domain.ValidationError{Field: "price", Message: "price is required"})
	}

	p := domain.Product{Price: *body.Price, IsAvailable: true}
	body.patch().Apply(&p)
	p, err := h.Catalog.CreateProduct(c.UserContext(), p)
	if err != nil {
		return apiError(c, "products.create", err)
	}
	log.Audit(c, "products.create", map[string]any{"product_id": p.ID, "name": p.Name, "price": p.Price.StringFixed(2)})
	return c.Status(fiber.StatusCreated).JSON(toProductView(p))
}

// PATCH /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	var body productBody
	if err := c.BodyParser(&body); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, body.patch())
	if err != nil {
		return apiError(c, "products.update", err)
	}
	log.Audit(c, "products.update", map[string]any{"product_id": p.ID, "price": p.Price.StringFixed(2), "available": p.IsAvailable})
	return c.JSON(toProductView(p))
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return apiError(c, "products.delete", err)
	}
	log.Audit(c, "products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
