package dashboard

import (
	"sort"
	"strings"
	"time"

	"marktplatz/internal/domain"
)

// FilterAll selects every offer.
const FilterAll = "all"

type Stats struct {
	TotalValue float64 `json:"total_value"`
	Count      int     `json:"count"`
	AvgPrice   float64 `json:"avg_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

type CategoryOption struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

type OfferCard struct {
	Offer    domain.Offer     `json:"offer"`
	Category *domain.Category `json:"category"`
}

type View struct {
	State         State            `json:"state"`
	Err           string           `json:"error,omitempty"`
	Filter        string           `json:"filter"`
	Stats         Stats            `json:"stats"`
	CategoryCount int              `json:"category_count"`
	Categories    []CategoryOption `json:"categories"`
	TopCategory   string           `json:"top_category,omitempty"`
	Offers        []OfferCard      `json:"offers"`
	LoadedAt      time.Time        `json:"loaded_at"`
}

// Derive computes all dashboard views from the two collections. It does not modify
// its inputs.
func Derive(offers []domain.Offer, cats []domain.Category, filter string) View {
	if filter == "" {
		filter = FilterAll
	}
	index := CategoryIndex(cats)
	counts := CountByCategory(offers, index)

	sortedCats := SortCategoriesByName(cats)
	options := make([]CategoryOption, 0, len(sortedCats))
	for _, c := range sortedCats {
		options = append(options, CategoryOption{Category: c, Count: counts[c.ID]})
	}

	visible := SortNewestFirst(FilterOffers(offers, filter))
	cards := make([]OfferCard, 0, len(visible))
	for _, o := range visible {
		card := OfferCard{Offer: o}
		if c, ok := index[o.CategoryID]; ok {
			card.Category = &c
		}
		cards = append(cards, card)
	}

	return View{
		Filter:        filter,
		Stats:         ComputeStats(offers),
		CategoryCount: len(cats),
		Categories:    options,
		TopCategory:   TopCategory(cats, counts),
		Offers:        cards,
	}
}

// ComputeStats treats absent prices as 0. Averages and the range are 0 without offers.
func ComputeStats(offers []domain.Offer) Stats {
	s := Stats{Count: len(offers)}
	for i, o := range offers {
		p := o.PriceOrZero()
		s.TotalValue += p
		if i == 0 || p < s.MinPrice {
			s.MinPrice = p
		}
		if i == 0 || p > s.MaxPrice {
			s.MaxPrice = p
		}
	}
	if s.Count > 0 {
		s.AvgPrice = s.TotalValue / float64(s.Count)
	}
	return s
}

func CategoryIndex(cats []domain.Category) map[string]domain.Category {
	m := make(map[string]domain.Category, len(cats))
	for _, c := range cats {
		m[c.ID] = c
	}
	return m
}

// CountByCategory counts offers per category id. Offers whose reference does not
// resolve to a known category are not counted anywhere.
func CountByCategory(offers []domain.Offer, index map[string]domain.Category) map[string]int {
	counts := make(map[string]int)
	for _, o := range offers {
		if o.CategoryID == "" {
			continue
		}
		if _, ok := index[o.CategoryID]; !ok {
			continue
		}
		counts[o.CategoryID]++
	}
	return counts
}

func FilterOffers(offers []domain.Offer, filter string) []domain.Offer {
	if filter == "" || filter == FilterAll {
		return offers
	}
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.CategoryID == filter {
			out = append(out, o)
		}
	}
	return out
}

// SortNewestFirst returns a copy ordered by creation time, newest first. Equal
// timestamps keep their input order.
func SortNewestFirst(offers []domain.Offer) []domain.Offer {
	out := make([]domain.Offer, len(offers))
	copy(out, offers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func SortCategoriesByName(cats []domain.Category) []domain.Category {
	out := make([]domain.Category, len(cats))
	copy(out, cats)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// TopCategory names the category with the most offers; the first one listed wins a
// tie. It is empty when there are no categories.
func TopCategory(cats []domain.Category, counts map[string]int) string {
	if len(cats) == 0 {
		return ""
	}
	best := cats[0]
	for _, c := range cats[1:] {
		if counts[c.ID] > counts[best.ID] {
			best = c
		}
	}
	return best.Name
}
