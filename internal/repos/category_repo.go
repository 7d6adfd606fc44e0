package repos

import (
	"context"
	"time"

	"marktplatz/internal/domain"
	"marktplatz/internal/records"
)

type CategoryRepo struct {
	col *records.Collection[categoryFields]
}

func NewCategoryRepo(c *records.Client, appID string) *CategoryRepo {
	return &CategoryRepo{col: records.NewCollection[categoryFields](c, appID)}
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	recs, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(recs))
	for _, rec := range recs {
		out = append(out, categoryFromRecord(rec))
	}
	sortByCreation(out, func(x domain.Category) (time.Time, string) { return x.CreatedAt, x.ID })
	return out, nil
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	rec, err := r.col.Get(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	return categoryFromRecord(rec), nil
}

func (r *CategoryRepo) Create(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	rec, err := r.col.Create(ctx, categoryToFields(in))
	if err != nil {
		return domain.Category{}, err
	}
	return categoryFromRecord(rec), nil
}

func (r *CategoryRepo) Update(ctx context.Context, id string, in domain.CategoryInput) (domain.Category, error) {
	rec, err := r.col.Update(ctx, id, categoryToFields(in))
	if err != nil {
		return domain.Category{}, err
	}
	return categoryFromRecord(rec), nil
}

// Delete does not touch offers that reference the category.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
