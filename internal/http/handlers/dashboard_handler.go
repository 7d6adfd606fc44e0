package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marktplatz/internal/dashboard"
	applog "marktplatz/internal/log"
	"marktplatz/internal/validate"
)

type DashboardHandler struct {
	Ctl *dashboard.Controller
}

// Home renders the dashboard for ?kategorie=<id|all>. Until the first load finishes it
// shows a loading page, after a failed load only the retry screen.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	st, err := h.Ctl.Status()
	switch st {
	case dashboard.StateLoading:
		return render(c, "loading", nil)
	case dashboard.StateFailed:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		c.Status(fiber.StatusServiceUnavailable)
		return render(c, "load_error", fiber.Map{"Err": msg})
	}

	filter := c.Query("kategorie", dashboard.FilterAll)
	if filter != dashboard.FilterAll {
		if _, ok := validate.RecordID(filter); !ok {
			filter = dashboard.FilterAll
		}
	}
	return render(c, "dashboard", fiber.Map{
		"View":       h.Ctl.View(filter),
		"Categories": h.Ctl.Categories(),
	})
}

// Retry reloads both collections from any state.
func (h *DashboardHandler) Retry(c *fiber.Ctx) error {
	if err := h.Ctl.Retry(c.UserContext()); err != nil {
		applog.Error(c, "dashboard.retry.fail", err, nil)
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	applog.Audit(c, "dashboard.retry", nil)
	return redirectWith(c, "/", success("Daten neu geladen", ""))
}
