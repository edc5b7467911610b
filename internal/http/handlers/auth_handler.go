package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"canteen/internal/log"
	"canteen/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	SecureCookie bool
}

type loginBody struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (h *AuthHandler) setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookie,
		Expires:  expires,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// a fresh session id on every login
	sid := uuid.NewString()
	u, err := h.Auth.Login(c.UserContext(), sid, body.Mobile, body.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"mobile": body.Mobile})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid mobile number or password"})
	}
	if err != nil {
		return apiError(c, "auth.login", err)
	}

	h.setSID(c, sid, time.Time{})
	c.Locals("user", u)
	log.Audit(c, "auth.login.success", map[string]any{"mobile": u.Mobile, "role": u.Role})
	return c.JSON(fiber.Map{"user": toUserView(u)})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout", err, nil)
		}
	}
	h.setSID(c, "", time.Now().Add(-1*time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": toUserView(currentUser(c))})
}
