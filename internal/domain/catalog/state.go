// Package catalog holds the product store: the fetched page, the category
// list, the active filters, the pagination cursor and the favorites set.
//
// State transitions are pure functions on State values; Store wraps a State
// behind a mutex and orchestrates gateway fetches.
package catalog

import (
	"slices"
	"strings"

	"github.com/xenking/shoplist/internal/domain/product"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

// fallbackFetchError is recorded when a failed fetch carries no message.
const fallbackFetchError = "failed to fetch products"

// State is a snapshot of the product store.
type State struct {
	Products         []product.Product
	TotalProducts    int
	Loading          bool
	Error            string
	Categories       []string
	SelectedCategory string
	SearchQuery      string
	Favorites        map[int]struct{}
	Page             int
	Limit            int
}

// NewState returns the initial state for the given page size.
func NewState(limit int) State {
	if limit < 1 {
		limit = DefaultLimit
	}
	return State{
		SelectedCategory: product.AllCategories,
		Favorites:        map[int]struct{}{},
		Page:             1,
		Limit:            limit,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	if s.Products != nil {
		products := make([]product.Product, len(s.Products))
		for i, p := range s.Products {
			products[i] = p.Clone()
		}
		s.Products = products
	}
	s.Categories = slices.Clone(s.Categories)
	favorites := make(map[int]struct{}, len(s.Favorites))
	for id := range s.Favorites {
		favorites[id] = struct{}{}
	}
	s.Favorites = favorites
	return s
}

// SetSelectedCategory replaces the category filter. Category changes
// invalidate pagination, so the page goes back to 1.
func (s State) SetSelectedCategory(category string) State {
	if category == "" {
		category = product.AllCategories
	}
	s.SelectedCategory = category
	s.Page = 1
	return s
}

// SetSearchQuery replaces the title filter and resets the page to 1.
func (s State) SetSearchQuery(query string) State {
	s.SearchQuery = query
	s.Page = 1
	return s
}

// SetPage moves the pagination cursor.
func (s State) SetPage(page int) State {
	s.Page = max(page, 1)
	return s
}

// ToggleFavorite flips membership of id in the favorites set.
func (s State) ToggleFavorite(id int) State {
	favorites := make(map[int]struct{}, len(s.Favorites)+1)
	for fid := range s.Favorites {
		favorites[fid] = struct{}{}
	}
	if _, ok := favorites[id]; ok {
		delete(favorites, id)
	} else {
		favorites[id] = struct{}{}
	}
	s.Favorites = favorites
	return s
}

func (s State) fetchPending() State {
	s.Loading = true
	s.Error = ""
	return s
}

// fetchSucceeded replaces the loaded products with the page just fetched.
func (s State) fetchSucceeded(page *product.Page) State {
	s.Loading = false
	s.Products = page.Products
	s.TotalProducts = page.Total
	return s
}

// fetchFailed records err and keeps the previously loaded products.
func (s State) fetchFailed(err error) State {
	s.Loading = false
	s.Error = fallbackFetchError
	if err != nil && err.Error() != "" {
		s.Error = err.Error()
	}
	return s
}

func (s State) categoriesLoaded(names []string) State {
	categories := make([]string, 0, len(names)+1)
	categories = append(categories, product.AllCategories)
	categories = append(categories, names...)
	s.Categories = categories
	return s
}

// Visible returns the loaded products whose title contains the search query,
// ignoring case. Search never reaches the gateway.
func (s State) Visible() []product.Product {
	if s.SearchQuery == "" {
		return s.Products
	}
	query := strings.ToLower(s.SearchQuery)
	out := make([]product.Product, 0, len(s.Products))
	for _, p := range s.Products {
		if strings.Contains(strings.ToLower(p.Title), query) {
			out = append(out, p)
		}
	}
	return out
}

// IsFavorite reports whether id is in the favorites set.
func (s State) IsFavorite(id int) bool {
	_, ok := s.Favorites[id]
	return ok
}

// FavoriteIDs returns the favorite ids in ascending order.
func (s State) FavoriteIDs() []int {
	ids := make([]int, 0, len(s.Favorites))
	for id := range s.Favorites {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Product looks up id within the loaded page.
func (s State) Product(id int) (product.Product, error) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, product.ErrNotFound
}

// NextPage implements the infinite-scroll contract: the next page may be
// requested only when nothing is loading and fewer products are loaded than
// the gateway last reported.
func (s State) NextPage() (int, bool) {
	if s.Loading || len(s.Products) >= s.TotalProducts {
		return 0, false
	}
	return s.Page + 1, true
}

// request builds the gateway request for the current cursor and filter.
func (s State) request() product.PageRequest {
	return product.PageRequest{
		Page:     s.Page,
		Limit:    s.Limit,
		Category: s.SelectedCategory,
	}
}
