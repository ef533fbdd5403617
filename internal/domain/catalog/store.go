package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shoplist/internal/domain/product"
)

// PageHook is called after a page has been applied to the store.
type PageHook func(ctx context.Context, products []product.Product)

// Store is the product store. It is safe for concurrent use; the lock is
// never held across gateway calls.
//
// Concurrent fetches are not de-duplicated: whichever response arrives last
// is applied.
type Store struct {
	gateway product.Gateway
	lg      *zap.Logger

	mu     sync.Mutex
	state  State
	onPage PageHook
}

// NewStore creates a Store with the given page size.
func NewStore(gateway product.Gateway, limit int, lg *zap.Logger) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		gateway: gateway,
		lg:      lg,
		state:   NewState(limit),
	}
}

// OnPage registers a hook run after every successful product fetch.
func (s *Store) OnPage(hook PageHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPage = hook
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) update(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

// SetSelectedCategory replaces the category filter and resets the page.
func (s *Store) SetSelectedCategory(category string) {
	s.update(func(st State) State { return st.SetSelectedCategory(category) })
}

// SetSearchQuery replaces the search text and resets the page.
func (s *Store) SetSearchQuery(query string) {
	s.update(func(st State) State { return st.SetSearchQuery(query) })
}

// SetPage moves the pagination cursor without fetching.
func (s *Store) SetPage(page int) {
	s.update(func(st State) State { return st.SetPage(page) })
}

// ToggleFavorite flips id in the favorites set and reports whether it is now
// a favorite.
func (s *Store) ToggleFavorite(id int) bool {
	return s.update(func(st State) State { return st.ToggleFavorite(id) }).IsFavorite(id)
}

// FetchCategories replaces the category list with "all" followed by the
// gateway's categories. On failure the previous list is kept.
func (s *Store) FetchCategories(ctx context.Context) error {
	names, err := s.gateway.ListCategories(ctx)
	if err != nil {
		s.lg.Warn("Fetch categories failed", zap.Error(err))
		return errors.Wrap(err, "fetch categories")
	}
	s.update(func(st State) State { return st.categoriesLoaded(names) })
	return nil
}

// FetchProducts requests one page and, on success, replaces the loaded
// products with it. On failure the error message is recorded and the
// previously loaded products are kept.
func (s *Store) FetchProducts(ctx context.Context, page, limit int, category string) error {
	s.update(State.fetchPending)
	return s.fetch(ctx, product.PageRequest{Page: page, Limit: limit, Category: category})
}

// Refresh fetches the page the cursor points at with the active category.
func (s *Store) Refresh(ctx context.Context) error {
	var req product.PageRequest
	s.update(func(st State) State {
		req = st.request()
		return st.fetchPending()
	})
	return s.fetch(ctx, req)
}

// LoadMore advances to the next page and fetches it when the infinite-scroll
// contract allows it. It reports whether a fetch was issued.
func (s *Store) LoadMore(ctx context.Context) (bool, error) {
	var (
		req product.PageRequest
		ok  bool
	)
	s.update(func(st State) State {
		var next int
		if next, ok = st.NextPage(); !ok {
			return st
		}
		st = st.SetPage(next)
		req = st.request()
		return st.fetchPending()
	})
	if !ok {
		return false, nil
	}
	return true, s.fetch(ctx, req)
}

// Load fetches the categories and the current page concurrently. Only the
// products fetch decides the result: a category failure is logged by
// FetchCategories and leaves the previous list in place.
func (s *Store) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_ = s.FetchCategories(ctx)
		return nil
	})
	g.Go(func() error { return s.Refresh(ctx) })
	return g.Wait()
}

func (s *Store) fetch(ctx context.Context, req product.PageRequest) error {
	lg := s.lg.With(
		zap.Int("page", req.Page),
		zap.Int("limit", req.Limit),
		zap.String("category", req.Category),
	)

	page, err := s.gateway.ListProducts(ctx, req)
	if err == nil && page == nil {
		err = errors.Wrap(product.ErrMalformedResponse, "empty page")
	}
	if err != nil {
		s.update(func(st State) State { return st.fetchFailed(err) })
		lg.Warn("Fetch products failed", zap.Error(err))
		return errors.Wrap(err, "fetch products")
	}

	st := s.update(func(st State) State { return st.fetchSucceeded(page) })
	lg.Debug("Products fetched",
		zap.Int("received", len(page.Products)),
		zap.Int("total", st.TotalProducts),
	)

	s.mu.Lock()
	hook := s.onPage
	s.mu.Unlock()
	if hook != nil {
		hook(ctx, page.Products)
	}
	return nil
}
