package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	applog "marktplatz/internal/log"
)

// CSRF protects every unsafe request. The token is read from the X-Csrf-Token header
// (used by JSON clients of the analyzer) or else from the "csrf" form field; either way
// it is checked against the cookie and the token store.
func CSRF() fiber.Handler {
	fromHeader := csrf.CsrfFromHeader(csrf.HeaderName)
	fromForm := csrf.CsrfFromForm("csrf")
	return csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		Extractor: func(c *fiber.Ctx) (string, error) {
			if tok, err := fromHeader(c); err == nil {
				return tok, nil
			}
			return fromForm(c)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Sicherheitsprüfung fehlgeschlagen. Bitte lade die Seite neu."})
		},
	})
}
