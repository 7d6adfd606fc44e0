package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"marktplatz/internal/domain"
	applog "marktplatz/internal/log"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

type OfferStore interface {
	List(ctx context.Context) ([]domain.Offer, error)
	Get(ctx context.Context, id string) (domain.Offer, error)
	Create(ctx context.Context, in domain.OfferInput) (domain.Offer, error)
	Update(ctx context.Context, id string, in domain.OfferInput) (domain.Offer, error)
	Delete(ctx context.Context, id string) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (domain.Category, error)
	Create(ctx context.Context, in domain.CategoryInput) (domain.Category, error)
	Update(ctx context.Context, id string, in domain.CategoryInput) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// Controller holds the only in-memory copy of both collections. Every successful write
// is followed by a full reload; nothing is patched locally.
type Controller struct {
	offers OfferStore
	cats   CategoryStore

	mu         sync.RWMutex
	state      State
	err        error
	offerList  []domain.Offer
	catList    []domain.Category
	loadedAt   time.Time
	generation uint64
}

func NewController(offers OfferStore, cats CategoryStore) *Controller {
	return &Controller{offers: offers, cats: cats, state: StateLoading}
}

// Load fetches both collections concurrently. Both must succeed for the controller to
// become ready; otherwise it is failed and keeps no partial data.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	var (
		offers []domain.Offer
		cats   []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		offers, err = c.offers.List(gctx)
		if err != nil {
			return fmt.Errorf("load offers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cats, err = c.cats.List(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// a newer load has started; its result wins
		return err
	}
	if err != nil {
		c.state = StateFailed
		c.err = err
		c.offerList, c.catList = nil, nil
		applog.Error(nil, "dashboard.load.fail", err, nil)
		return err
	}
	c.state = StateReady
	c.err = nil
	c.offerList, c.catList = offers, cats
	c.loadedAt = time.Now().UTC()
	applog.Info(nil, "dashboard.load", map[string]any{"offers": len(offers), "categories": len(cats)})
	return nil
}

// Retry re-enters loading from any state.
func (c *Controller) Retry(ctx context.Context) error { return c.Load(ctx) }

func (c *Controller) Status() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.err
}

// View derives everything the dashboard shows for the given category filter.
func (c *Controller) View(filter string) View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := Derive(c.offerList, c.catList, filter)
	v.State = c.state
	if c.err != nil {
		v.Err = c.err.Error()
	}
	v.LoadedAt = c.loadedAt
	return v
}

// Categories returns the loaded categories sorted by name.
func (c *Controller) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return SortCategoriesByName(c.catList)
}

// FetchOffer reads one offer straight from the backend together with its category,
// which is nil when the reference does not resolve.
func (c *Controller) FetchOffer(ctx context.Context, id string) (domain.Offer, *domain.Category, error) {
	o, err := c.offers.Get(ctx, id)
	if err != nil {
		return domain.Offer{}, nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cat, ok := CategoryIndex(c.catList)[o.CategoryID]; ok {
		return o, &cat, nil
	}
	return o, nil, nil
}

// afterWrite resynchronises after a confirmed write. A failing reload leaves the
// controller failed but does not turn the write itself into an error.
func (c *Controller) afterWrite(ctx context.Context) {
	_ = c.Load(ctx)
}

func (c *Controller) CreateOffer(ctx context.Context, in domain.OfferInput) (domain.Offer, error) {
	o, err := c.offers.Create(ctx, in)
	if err != nil {
		return domain.Offer{}, err
	}
	c.afterWrite(ctx)
	return o, nil
}

func (c *Controller) UpdateOffer(ctx context.Context, id string, in domain.OfferInput) (domain.Offer, error) {
	o, err := c.offers.Update(ctx, id, in)
	if err != nil {
		return domain.Offer{}, err
	}
	c.afterWrite(ctx)
	return o, nil
}

func (c *Controller) DeleteOffer(ctx context.Context, id string) error {
	if err := c.offers.Delete(ctx, id); err != nil {
		return err
	}
	c.afterWrite(ctx)
	return nil
}

func (c *Controller) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	cat, err := c.cats.Create(ctx, in)
	if err != nil {
		return domain.Category{}, err
	}
	c.afterWrite(ctx)
	return cat, nil
}

func (c *Controller) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (domain.Category, error) {
	cat, err := c.cats.Update(ctx, id, in)
	if err != nil {
		return domain.Category{}, err
	}
	c.afterWrite(ctx)
	return cat, nil
}

// DeleteCategory leaves referencing offers as they are.
func (c *Controller) DeleteCategory(ctx context.Context, id string) error {
	if err := c.cats.Delete(ctx, id); err != nil {
		return err
	}
	c.afterWrite(ctx)
	return nil
}
