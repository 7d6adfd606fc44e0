package handlers

import (
	"strconv"
	"strings"

	"marktplatz/internal/domain"
	"marktplatz/internal/validate"
	"marktplatz/internal/vision"
)

// OfferForm mirrors the offer dialog. All values stay strings until Input so a
// rejected submission can be shown again exactly as typed.
type OfferForm struct {
	Photo            string `form:"photo_url" json:"photo_url"`
	Manufacturer     string `form:"hersteller" json:"hersteller"`
	Model            string `form:"modell" json:"modell"`
	Color            string `form:"farbe" json:"farbe"`
	Size             string `form:"groesse" json:"groesse"`
	CategoryID       string `form:"kategorie" json:"kategorie"`
	Price            string `form:"preis" json:"preis"`
	Description      string `form:"produktbeschreibung" json:"produktbeschreibung"`
	ContactFirstName string `form:"kontakt_vorname" json:"kontakt_vorname"`
	ContactLastName  string `form:"kontakt_nachname" json:"kontakt_nachname"`
	ContactEmail     string `form:"kontakt_email" json:"kontakt_email"`
	ContactPhone     string `form:"kontakt_telefon" json:"kontakt_telefon"`
}

// OfferFormFrom prefills the edit dialog.
func OfferFormFrom(o domain.Offer) OfferForm {
	f := OfferForm{
		Photo:            o.Photo,
		Manufacturer:     o.Manufacturer,
		Model:            o.Model,
		Color:            o.Color,
		Size:             o.Size,
		CategoryID:       o.CategoryID,
		Description:      o.Description,
		ContactFirstName: o.ContactFirstName,
		ContactLastName:  o.ContactLastName,
		ContactEmail:     o.ContactEmail,
		ContactPhone:     o.ContactPhone,
	}
	if o.Price != nil {
		f.Price = strconv.FormatFloat(*o.Price, 'f', -1, 64)
	}
	return f
}

// Input converts the form into a write payload. missing lists the labels of required
// fields that are empty; a price that does not parse counts as missing.
func (f OfferForm) Input() (in domain.OfferInput, missing []string) {
	in = domain.OfferInput{
		Photo:           strings.TrimSpace(f.Photo),
		Model:           strings.TrimSpace(f.Model),
		Color:           strings.TrimSpace(f.Color),
		Size:            strings.TrimSpace(f.Size),
		CategoryID:      strings.TrimSpace(f.CategoryID),
		Description:     strings.TrimSpace(f.Description),
		ContactLastName: strings.TrimSpace(f.ContactLastName),
		ContactEmail:    strings.TrimSpace(f.ContactEmail),
		ContactPhone:    strings.TrimSpace(f.ContactPhone),
	}
	var ok bool
	if in.Manufacturer, ok = validate.Required(f.Manufacturer); !ok {
		missing = append(missing, "Hersteller")
	}
	if p, ok := validate.Price(f.Price); ok {
		in.Price = &p
	} else {
		missing = append(missing, "Preis")
	}
	if in.ContactFirstName, ok = validate.Required(f.ContactFirstName); !ok {
		missing = append(missing, "Vorname")
	}
	return in, missing
}

// ApplyHints fills empty fields from an image analysis. Anything already typed wins.
func (f *OfferForm) ApplyHints(h vision.Hints) {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" && v != "" {
			*dst = v
		}
	}
	fill(&f.Manufacturer, h.Manufacturer)
	fill(&f.Model, h.Model)
	fill(&f.Color, h.Color)
	fill(&f.Size, h.Size)
	fill(&f.Description, h.Description)
	if _, ok := validate.Price(h.Price); ok {
		fill(&f.Price, h.Price)
	}
}

type CategoryForm struct {
	Name        string `form:"kategoriename" json:"kategoriename"`
	Description string `form:"beschreibung" json:"beschreibung"`
}

func CategoryFormFrom(c domain.Category) CategoryForm {
	return CategoryForm{Name: c.Name, Description: c.Description}
}

func (f CategoryForm) Input() (domain.CategoryInput, bool) {
	name, ok := validate.Required(f.Name)
	return domain.CategoryInput{Name: name, Description: strings.TrimSpace(f.Description)}, ok
}
