package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marktplatz/internal/dashboard"
	applog "marktplatz/internal/log"
	"marktplatz/internal/validate"
)

type APIHandler struct {
	Ctl *dashboard.Controller
}

// Dashboard returns the derived view as JSON.
func (h *APIHandler) Dashboard(c *fiber.Ctx) error {
	v := h.Ctl.View(c.Query("kategorie", dashboard.FilterAll))
	if v.State != dashboard.StateReady {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"state": v.State, "error": v.Err})
	}
	return c.JSON(v)
}

// Offer reads one offer from the backend together with its resolved category.
func (h *APIHandler) Offer(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	o, cat, err := h.Ctl.FetchOffer(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "api.offer.fail", err, map[string]any{"offer_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
	}
	return c.JSON(fiber.Map{
		"offer":       o,
		"category":    cat,
		"title":       o.Title(),
		"price_label": dashboard.FormatEUR(o.Price),
		"contact":     o.ContactName(),
	})
}
