package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"marktplatz/internal/dashboard"
	applog "marktplatz/internal/log"
	"marktplatz/internal/photos"
	"marktplatz/internal/validate"
	"marktplatz/internal/vision"
)

type OfferHandler struct {
	Ctl           *dashboard.Controller
	Analyzer      ImageAnalyzer
	Photos        photos.Store
	MaxPhotoBytes int
}

func (h *OfferHandler) formPage(c *fiber.Ctx, status int, id string, form OfferForm, n *Notice) error {
	data := fiber.Map{
		"Form":       form,
		"OfferID":    id,
		"Categories": h.Ctl.Categories(),
		"Uploads":    h.Photos != nil,
	}
	if id == "" {
		data["Heading"], data["Action"] = "Neues Angebot", "/offers"
	} else {
		data["Heading"], data["Action"] = "Angebot bearbeiten", "/offers/"+id
	}
	if n != nil {
		data["Notice"] = n
	}
	c.Status(status)
	return render(c, "offer_form", data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// New opens an empty offer dialog, preselecting ?kategorie when given.
func (h *OfferHandler) New(c *fiber.Ctx) error {
	form := OfferForm{}
	if id, ok := validate.RecordID(c.Query("kategorie")); ok {
		form.CategoryID = id
	}
	return h.formPage(c, fiber.StatusOK, "", form, nil)
}

func (h *OfferHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Angebot nicht gefunden")
	}
	o, cat, err := h.Ctl.FetchOffer(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "offers.detail.fail", err, map[string]any{"offer_id": id})
		return notFound(c, "Angebot nicht gefunden")
	}
	return render(c, "offer_detail", fiber.Map{"Offer": o, "Category": cat})
}

func (h *OfferHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Angebot nicht gefunden")
	}
	o, _, err := h.Ctl.FetchOffer(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "offers.edit.fail", err, map[string]any{"offer_id": id})
		return notFound(c, "Angebot nicht gefunden")
	}
	return h.formPage(c, fiber.StatusOK, id, OfferFormFrom(o), nil)
}

func (h *OfferHandler) Create(c *fiber.Ctx) error {
	return h.save(c, "")
}

func (h *OfferHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Angebot nicht gefunden")
	}
	return h.save(c, id)
}

// save handles both dialog submissions. Required fields are checked before anything
// reaches the backend; other fields are passed through as typed.
func (h *OfferHandler) save(c *fiber.Ctx, id string) error {
	action := "offers.create"
	if id != "" {
		action = "offers.update"
	}
	var form OfferForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	if fh, err := c.FormFile("photo"); err == nil && fh.Size > 0 && h.Photos != nil {
		url, err := h.upload(c, fh)
		if err != nil {
			applog.Error(c, "offers.photo.fail", err, nil)
			return h.formPage(c, fiber.StatusBadGateway, id, form, failure("Foto-Upload fehlgeschlagen", err))
		}
		form.Photo = url
	}

	in, missing := form.Input()
	if len(missing) > 0 {
		applog.Info(c, action+".invalid", map[string]any{"missing": missing})
		return h.formPage(c, fiber.StatusBadRequest, id, form, &Notice{
			Kind:   NoticeError,
			Title:  "Pflichtfelder fehlen",
			Detail: strings.Join(missing, ", "),
		})
	}

	if id == "" {
		o, err := h.Ctl.CreateOffer(c.UserContext(), in)
		if err != nil {
			applog.Error(c, action+".fail", err, nil)
			return h.formPage(c, fiber.StatusBadGateway, id, form, failure("Angebot konnte nicht gespeichert werden", err))
		}
		applog.Audit(c, action, map[string]any{"offer_id": o.ID})
		return redirectWith(c, "/", success("Angebot erstellt", o.Title()))
	}

	if _, err := h.Ctl.UpdateOffer(c.UserContext(), id, in); err != nil {
		applog.Error(c, action+".fail", err, map[string]any{"offer_id": id})
		return h.formPage(c, fiber.StatusBadGateway, id, form, failure("Angebot konnte nicht gespeichert werden", err))
	}
	applog.Audit(c, action, map[string]any{"offer_id": id})
	return redirectWith(c, "/", success("Angebot aktualisiert", ""))
}

func (h *OfferHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.RecordID(c.Params("id"))
	if !ok {
		return notFound(c, "Angebot nicht gefunden")
	}
	if err := h.Ctl.DeleteOffer(c.UserContext(), id); err != nil {
		applog.Error(c, "offers.delete.fail", err, map[string]any{"offer_id": id})
		return redirectWith(c, "/", failure("Löschen fehlgeschlagen", err))
	}
	applog.Audit(c, "offers.delete", map[string]any{"offer_id": id})
	return redirectWith(c, "/", success("Angebot gelöscht", ""))
}

// Analyze reads the uploaded photo, asks the analyzer for hints and merges them into
// the submitted form without overwriting anything typed. JSON clients get the merged
// form back; browsers get the dialog re-rendered.
func (h *OfferHandler) Analyze(c *fiber.Ctx) error {
	var form OfferForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	id := ""
	if v, ok := validate.RecordID(c.FormValue("offer_id")); ok {
		id = v
	}

	fh, err := c.FormFile("photo")
	if err != nil || fh.Size == 0 {
		return h.analyzeReply(c, id, form, vision.Hints{}, &Notice{Kind: NoticeError, Title: "Kein Foto ausgewählt"}, fiber.StatusBadRequest)
	}
	data, err := readUpload(fh, h.MaxPhotoBytes)
	if err != nil {
		return h.analyzeReply(c, id, form, vision.Hints{}, &Notice{Kind: NoticeError, Title: "Foto konnte nicht gelesen werden", Detail: err.Error()}, fiber.StatusBadRequest)
	}
	b64, mediaType, err := vision.EncodeImage(bytes.NewReader(data), fh.Header.Get("Content-Type"))
	if err != nil {
		return h.analyzeReply(c, id, form, vision.Hints{}, &Notice{Kind: NoticeError, Title: "Foto konnte nicht gelesen werden", Detail: err.Error()}, fiber.StatusBadRequest)
	}

	if h.Photos != nil && strings.TrimSpace(form.Photo) == "" {
		if url, err := h.Photos.Put(c.UserContext(), fh.Filename, mediaType, data); err != nil {
			applog.Error(c, "offers.photo.fail", err, nil)
		} else {
			form.Photo = url
		}
	}

	hints, err := h.Analyzer.Analyze(c.UserContext(), b64, mediaType)
	var n *Notice
	switch {
	case err != nil:
		applog.Error(c, "offers.analyze.fail", err, nil)
		n = &Notice{Kind: NoticeWarning, Title: "Foto-Analyse fehlgeschlagen", Detail: "Bitte fülle die Felder manuell aus."}
	case hints.Empty():
		applog.Info(c, "offers.analyze.empty", nil)
		n = &Notice{Kind: NoticeWarning, Title: "Nichts erkannt", Detail: "Bitte fülle die Felder manuell aus."}
	default:
		applog.Audit(c, "offers.analyze", map[string]any{"label": hints.Label()})
		detail := "Einige Felder wurden automatisch ausgefüllt."
		if l := hints.Label(); l != "" {
			detail = fmt.Sprintf("%s erkannt. %s", l, detail)
		}
		n = success("Produktinfos erkannt", detail)
	}
	form.ApplyHints(hints)
	return h.analyzeReply(c, id, form, hints, n, fiber.StatusOK)
}

func (h *OfferHandler) analyzeReply(c *fiber.Ctx, id string, form OfferForm, hints vision.Hints, n *Notice, status int) error {
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
		return c.Status(status).JSON(fiber.Map{"hints": hints, "form": form, "notice": n})
	}
	return h.formPage(c, status, id, form, n)
}

func (h *OfferHandler) upload(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	data, err := readUpload(fh, h.MaxPhotoBytes)
	if err != nil {
		return "", err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = vision.DefaultMediaType
	}
	return h.Photos.Put(c.UserContext(), fh.Filename, ct, data)
}

func readUpload(fh *multipart.FileHeader, limit int) ([]byte, error) {
	if limit > 0 && fh.Size > int64(limit) {
		return nil, fmt.Errorf("photo exceeds %d bytes", limit)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
