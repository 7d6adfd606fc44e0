package repos

import (
	"context"
	"time"

	"marktplatz/internal/domain"
	"marktplatz/internal/records"
)

type OfferRepo struct {
	col           *records.Collection[offerFields]
	categoriesApp string
}

// NewOfferRepo needs the categories application id to write category references.
func NewOfferRepo(c *records.Client, appID, categoriesApp string) *OfferRepo {
	return &OfferRepo{col: records.NewCollection[offerFields](c, appID), categoriesApp: categoriesApp}
}

func (r *OfferRepo) List(ctx context.Context) ([]domain.Offer, error) {
	recs, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Offer, 0, len(recs))
	for _, rec := range recs {
		out = append(out, offerFromRecord(rec))
	}
	sortByCreation(out, func(x domain.Offer) (time.Time, string) { return x.CreatedAt, x.ID })
	return out, nil
}

func (r *OfferRepo) Get(ctx context.Context, id string) (domain.Offer, error) {
	rec, err := r.col.Get(ctx, id)
	if err != nil {
		return domain.Offer{}, err
	}
	return offerFromRecord(rec), nil
}

func (r *OfferRepo) Create(ctx context.Context, in domain.OfferInput) (domain.Offer, error) {
	rec, err := r.col.Create(ctx, offerToFields(in, r.categoriesApp))
	if err != nil {
		return domain.Offer{}, err
	}
	return offerFromRecord(rec), nil
}

func (r *OfferRepo) Update(ctx context.Context, id string, in domain.OfferInput) (domain.Offer, error) {
	rec, err := r.col.Update(ctx, id, offerToFields(in, r.categoriesApp))
	if err != nil {
		return domain.Offer{}, err
	}
	return offerFromRecord(rec), nil
}

func (r *OfferRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
