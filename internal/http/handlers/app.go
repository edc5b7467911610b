package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"canteen/internal/config"
	applog "canteen/internal/log"
)

// Limits holds the request budgets. Tests shrink them.
type Limits struct {
	Global      int
	OrderCreate int
	Login       int
}

var DefaultLimits = Limits{Global: 120, OrderCreate: 10, Login: 5}

// ErrorHandler logs unexpected errors and never leaks their text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp builds the Fiber app with the middleware chain and every route.
func NewApp(cfg config.Config, deps *Deps, lim Limits) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("start", time.Now())
		return c.Next()
	})
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(AttachUser(deps.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        lim.Global,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api")

	// Auth (login throttled)
	auth := api.Group("/auth")
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        lim.Login,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	auth.Post("/logout", deps.AuthHandler.Logout)
	auth.Get("/me", RequireUser(), deps.AuthHandler.Me)

	// Catalog
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Post("/products", RequireAdmin(), deps.ProductHandler.Create)
	api.Patch("/products/:id", RequireAdmin(), deps.ProductHandler.Update)
	api.Delete("/products/:id", RequireAdmin(), deps.ProductHandler.Delete)

	// Orders
	orderLimiter := limiter.New(limiter.Config{
		Max:        lim.OrderCreate,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return currentUser(c).ID + "|orders"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.orders.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many orders. Please wait a minute."})
		},
	})
	api.Post("/orders", RequireUser(), orderLimiter, deps.OrderHandler.Create)
	api.Get("/orders", RequireUser(), deps.OrderHandler.List)
	api.Get("/orders/:id", RequireUser(), deps.OrderHandler.Get)
	api.Patch("/orders/:id/status", RequireAdmin(), deps.AdminHandler.UpdateOrderStatus)
	api.Post("/orders/:id/force-status", RequireAdmin(), deps.AdminHandler.ForceOrderStatus)

	// Staff
	api.Get("/admin/summary", RequireAdmin(), deps.AdminHandler.Summary)

	// Receipt page
	app.Get("/orders/:id/receipt", RequireUser(), deps.OrderHandler.Receipt)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return notFoundPage(c, "Page not found")
	})

	return app
}
