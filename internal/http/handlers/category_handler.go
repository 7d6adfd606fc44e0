package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marktplatz/internal/dashboard"
	"marktplatz/internal/domain"
	applog "marktplatz/internal/log"
	"marktplatz/internal/validate"
)

type CategoryHandler struct {
	Ctl *dashboard.Controller
}

func (h *CategoryHandler) formPage(c *fiber.Ctx, status int, id string, form CategoryForm, n *Notice) error {
	data := fiber.Map{"Form": form, "CategoryID": id}
	if id == "" {
		data["Heading"], data["Action"] = "Neue Kategorie", "/categories"
	} else {
		data["Heading"], data["Action"] = "Kategorie bearbeiten", "/categories/"+id
	}
	if n != nil {
		data["Notice"] = n
	}
	c.Status(status)
	return render(c, "category_form", data)
}

// lookup finds a category in the loaded collection.
func (h *CategoryHandler) lookup(id string) (domain.Category, bool) {
	for _, cat := range h.Ctl.Categories() {
		if cat.ID == id {
			return cat, true
		}
	}
	return domain.Category{}, false
}

func (h *CategoryHandler) New(c *fiber.Ctx) error {
	return h.formPage(c, fiber.StatusOK, "", CategoryForm{}, nil)
}

func (h *CategoryHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Kategorie nicht gefunden")
	}
	cat, ok := h.lookup(id)
	if !ok {
		return notFound(c, "Kategorie nicht gefunden")
	}
	return h.formPage(c, fiber.StatusOK, id, CategoryFormFrom(cat), nil)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	return h.save(c, "")
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Kategorie nicht gefunden")
	}
	return h.save(c, id)
}

func (h *CategoryHandler) save(c *fiber.Ctx, id string) error {
	action := "categories.create"
	if id != "" {
		action = "categories.update"
	}
	var form CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	in, ok := form.Input()
	if !ok {
		applog.Info(c, action+".invalid", map[string]any{"missing": []string{"Kategoriename"}})
		return h.formPage(c, fiber.StatusBadRequest, id, form, &Notice{Kind: NoticeError, Title: "Pflichtfelder fehlen", Detail: "Kategoriename"})
	}

	var err error
	if id == "" {
		var cat domain.Category
		cat, err = h.Ctl.CreateCategory(c.UserContext(), in)
		id = cat.ID
	} else {
		_, err = h.Ctl.UpdateCategory(c.UserContext(), id, in)
	}
	if err != nil {
		applog.Error(c, action+".fail", err, map[string]any{"category_id": id})
		return h.formPage(c, fiber.StatusBadGateway, c.Params("id"), form, failure("Kategorie konnte nicht gespeichert werden", err))
	}
	applog.Audit(c, action, map[string]any{"category_id": id, "name": in.Name})
	return redirectWith(c, "/", success("Kategorie gespeichert", in.Name))
}

// Delete removes the category only. Offers referencing it keep the dangling
// reference and show up without a category afterwards.
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Kategorie nicht gefunden")
	}
	if err := h.Ctl.DeleteCategory(c.UserContext(), id); err != nil {
		applog.Error(c, "categories.delete.fail", err, map[string]any{"category_id": id})
		return redirectWith(c, "/", failure("Löschen fehlgeschlagen", err))
	}
	applog.Audit(c, "categories.delete", map[string]any{"category_id": id})
	return redirectWith(c, "/?kategorie="+dashboard.FilterAll, success("Kategorie gelöscht", ""))
}
