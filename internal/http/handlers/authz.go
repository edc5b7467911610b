package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/domain"
	applog "canteen/internal/log"
	"canteen/internal/services"
)

// AttachUser resolves the session cookie and stores the user in Locals.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser rejects requests without a logged in session.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return deny(c, fiber.StatusUnauthorized, "Please log in to continue")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return deny(c, fiber.StatusUnauthorized, "Please log in to continue")
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"role": u.Role})
			return deny(c, fiber.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}

// deny answers JSON on the API and a page everywhere else.
func deny(c *fiber.Ctx, code int, msg string) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	return c.Status(code).Render("notfound", fiber.Map{"Message": msg})
}
