package repos

import (
	"sort"
	"strings"
	"time"

	"marktplatz/internal/domain"
	"marktplatz/internal/records"
)

// Field sets as the backend stores them.
type categoryFields struct {
	Name        string `json:"kategoriename,omitempty"`
	Description string `json:"beschreibung,omitempty"`
}

type offerFields struct {
	Photo            string   `json:"produktfotos,omitempty"`
	Manufacturer     string   `json:"hersteller,omitempty"`
	Model            string   `json:"modell,omitempty"`
	Color            string   `json:"farbe,omitempty"`
	Size             string   `json:"groesse,omitempty"`
	Category         string   `json:"kategorie,omitempty"` // resource URL of a category record
	Price            *float64 `json:"preis,omitempty"`
	Description      string   `json:"produktbeschreibung,omitempty"`
	ContactFirstName string   `json:"kontakt_vorname,omitempty"`
	ContactLastName  string   `json:"kontakt_nachname,omitempty"`
	ContactEmail     string   `json:"kontakt_email,omitempty"`
	ContactPhone     string   `json:"kontakt_telefon,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the layouts the backend has been seen to emit. Unknown or
// empty input yields the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// sortByCreation orders records oldest first, then by id, so that derived views do
// not depend on the backend's map order.
func sortByCreation[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}

func categoryFromRecord(rec records.Record[categoryFields]) domain.Category {
	return domain.Category{
		ID:          rec.ID,
		Name:        rec.Fields.Name,
		Description: rec.Fields.Description,
		CreatedAt:   parseTimestamp(rec.CreatedAt),
		UpdatedAt:   parseTimestamp(rec.UpdatedAt),
	}
}

func categoryToFields(in domain.CategoryInput) categoryFields {
	return categoryFields{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

func offerFromRecord(rec records.Record[offerFields]) domain.Offer {
	// An unparseable reference is kept as "no category"; it is never repaired.
	catID, _ := records.ExtractID(rec.Fields.Category)
	return domain.Offer{
		ID:               rec.ID,
		Photo:            rec.Fields.Photo,
		Manufacturer:     rec.Fields.Manufacturer,
		Model:            rec.Fields.Model,
		Color:            rec.Fields.Color,
		Size:             rec.Fields.Size,
		CategoryID:       catID,
		Price:            rec.Fields.Price,
		Description:      rec.Fields.Description,
		ContactFirstName: rec.Fields.ContactFirstName,
		ContactLastName:  rec.Fields.ContactLastName,
		ContactEmail:     rec.Fields.ContactEmail,
		ContactPhone:     rec.Fields.ContactPhone,
		CreatedAt:        parseTimestamp(rec.CreatedAt),
		UpdatedAt:        parseTimestamp(rec.UpdatedAt),
	}
}

func offerToFields(in domain.OfferInput, categoriesApp string) offerFields {
	f := offerFields{
		Photo:            strings.TrimSpace(in.Photo),
		Manufacturer:     strings.TrimSpace(in.Manufacturer),
		Model:            strings.TrimSpace(in.Model),
		Color:            strings.TrimSpace(in.Color),
		Size:             strings.TrimSpace(in.Size),
		Price:            in.Price,
		Description:      strings.TrimSpace(in.Description),
		ContactFirstName: strings.TrimSpace(in.ContactFirstName),
		ContactLastName:  strings.TrimSpace(in.ContactLastName),
		ContactEmail:     strings.TrimSpace(in.ContactEmail),
		ContactPhone:     strings.TrimSpace(in.ContactPhone),
	}
	if id := strings.TrimSpace(in.CategoryID); id != "" {
		f.Category = records.RecordURL(categoriesApp, id)
	}
	return f
}
