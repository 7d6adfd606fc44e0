package handlers

import (
	applog "marktplatz/internal/log"
	"marktplatz/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireAdmin lets only ADMIN sessions through; anonymous visitors go to /login.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Kein Zugriff"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}
