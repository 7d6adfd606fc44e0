package domain

import (
	"strings"
	"time"
)

// Application ids of the two record collections on the backend.
const (
	AppCategories = "69983b520a1e6808728fba51"
	AppOffers     = "69983b57b9c7067ba76c8846"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Offer is a marketplace listing. CategoryID is the bare record id; the URL form only
// exists on the wire.
type Offer struct {
	ID               string    `json:"id"`
	Photo            string    `json:"photo,omitempty"`
	Manufacturer     string    `json:"manufacturer,omitempty"`
	Model            string    `json:"model,omitempty"`
	Color            string    `json:"color,omitempty"`
	Size             string    `json:"size,omitempty"`
	CategoryID       string    `json:"category_id,omitempty"`
	Price            *float64  `json:"price,omitempty"` // EUR
	Description      string    `json:"description,omitempty"`
	ContactFirstName string    `json:"contact_first_name,omitempty"`
	ContactLastName  string    `json:"contact_last_name,omitempty"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	ContactPhone     string    `json:"contact_phone,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// Title joins manufacturer and model, skipping empty parts.
func (o Offer) Title() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{o.Manufacturer, o.Model} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// PriceOrZero treats an absent price as 0.
func (o Offer) PriceOrZero() float64 {
	if o.Price == nil {
		return 0
	}
	return *o.Price
}

// ContactName joins first and last name.
func (o Offer) ContactName() string {
	return strings.TrimSpace(o.ContactFirstName + " " + o.ContactLastName)
}

type CategoryInput struct {
	Name        string
	Description string
}

// OfferInput is a write payload. Empty strings and a nil price are omitted on the wire.
type OfferInput struct {
	Photo            string
	Manufacturer     string
	Model            string
	Color            string
	Size             string
	CategoryID       string
	Price            *float64
	Description      string
	ContactFirstName string
	ContactLastName  string
	ContactEmail     string
	ContactPhone     string
}
