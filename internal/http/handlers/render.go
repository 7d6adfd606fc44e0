package handlers

import (
	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"marktplatz/internal/dashboard"
)

// NewViews builds the template engine with the dashboard's formatting helpers.
func NewViews(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("eur", dashboard.FormatEUR)
	engine.AddFunc("euro", dashboard.EUR)
	engine.AddFunc("date", dashboard.FormatDate)
	return engine
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if _, ok := data["Notice"]; !ok {
		if n := takeNotice(c); n != nil {
			data["Notice"] = n
		}
	}
	data["CSRFToken"] = csrfToken(c)
	return c.Render(tmpl, data)
}

// csrfToken prefers the token the CSRF middleware put into Locals and falls back to
// the cookie when Locals was not populated.
func csrfToken(c *fiber.Ctx) string {
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		return tok
	}
	return c.Cookies("csrf_")
}
