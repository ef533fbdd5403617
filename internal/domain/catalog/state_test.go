package catalog

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shoplist/internal/domain/product"
)

func newTestProduct(id int, title string) product.Product {
	return product.Product{
		ID:       id,
		Title:    title,
		Price:    decimal.NewFromInt(int64(id)),
		Category: "test",
		Images:   []string{"https://cdn.example.com/" + title + ".jpg"},
	}
}

func TestNewState(t *testing.T) {
	s := NewState(0)

	assert.Equal(t, product.AllCategories, s.SelectedCategory)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, DefaultLimit, s.Limit)
	assert.NotNil(t, s.Favorites)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
}

func TestFilterChangesResetPage(t *testing.T) {
	base := NewState(10).SetPage(7)
	require.Equal(t, 7, base.Page)

	tests := []struct {
		name  string
		apply func(State) State
	}{
		{name: "category", apply: func(s State) State { return s.SetSelectedCategory("groceries") }},
		{name: "same category", apply: func(s State) State { return s.SetSelectedCategory(product.AllCategories) }},
		{name: "search", apply: func(s State) State { return s.SetSearchQuery("phone") }},
		{name: "empty search", apply: func(s State) State { return s.SetSearchQuery("") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 1, tt.apply(base).Page)
			assert.Equal(t, 7, base.Page, "transition must not mutate its input")
		})
	}
}

func TestSetSelectedCategory_EmptyMeansAll(t *testing.T) {
	s := NewState(10).SetSelectedCategory("beauty").SetSelectedCategory("")
	assert.Equal(t, product.AllCategories, s.SelectedCategory)
}

func TestSetPage_ClampsToFirst(t *testing.T) {
	assert.Equal(t, 1, NewState(10).SetPage(0).Page)
	assert.Equal(t, 1, NewState(10).SetPage(-3).Page)
	assert.Equal(t, 4, NewState(10).SetPage(4).Page)
}

func TestToggleFavorite_IsItsOwnInverse(t *testing.T) {
	start := NewState(10).ToggleFavorite(3).ToggleFavorite(8)

	for _, id := range []int{3, 5, 8} {
		twice := start.ToggleFavorite(id).ToggleFavorite(id)
		assert.Equal(t, start.FavoriteIDs(), twice.FavoriteIDs(), "id %d", id)
	}

	once := start.ToggleFavorite(5)
	assert.True(t, once.IsFavorite(5))
	assert.False(t, start.IsFavorite(5), "transition must not mutate its input")
	assert.Equal(t, []int{3, 5, 8}, once.FavoriteIDs())
}

func TestFetchLifecycle(t *testing.T) {
	old := []product.Product{newTestProduct(1, "Old")}
	s := NewState(10)
	s.Products = old
	s.Error = "previous failure"

	s = s.fetchPending()
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)

	failed := s.fetchFailed(errors.New("HTTP error! status: 500"))
	assert.False(t, failed.Loading)
	assert.Equal(t, "HTTP error! status: 500", failed.Error)
	assert.Equal(t, old, failed.Products)

	fresh := []product.Product{newTestProduct(2, "New"), newTestProduct(3, "Newer")}
	ok := s.fetchSucceeded(&product.Page{Products: fresh, Total: 30})
	assert.False(t, ok.Loading)
	assert.Equal(t, fresh, ok.Products)
	assert.Equal(t, 30, ok.TotalProducts)
}

func TestFetchFailed_FallbackMessage(t *testing.T) {
	assert.Equal(t, fallbackFetchError, NewState(10).fetchFailed(nil).Error)
}

func TestCategoriesLoaded(t *testing.T) {
	s := NewState(10).categoriesLoaded([]string{"beauty", "groceries"})
	assert.Equal(t, []string{"all", "beauty", "groceries"}, s.Categories)

	s = s.categoriesLoaded(nil)
	assert.Equal(t, []string{"all"}, s.Categories)
}

func TestVisible(t *testing.T) {
	s := NewState(10)
	s.Products = []product.Product{
		newTestProduct(1, "iPhone 9"),
		newTestProduct(2, "Samsung Universe"),
		newTestProduct(3, "IPHONE X"),
	}

	assert.Len(t, s.Visible(), 3)

	got := s.SetSearchQuery("iphone").Visible()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)

	assert.Empty(t, s.SetSearchQuery("pixel").Visible())
}

func TestNextPage(t *testing.T) {
	tests := []struct {
		name     string
		loaded   int
		total    int
		loading  bool
		wantPage int
		wantOK   bool
	}{
		{name: "more available", loaded: 10, total: 100, wantPage: 2, wantOK: true},
		{name: "already loading", loaded: 10, total: 100, loading: true},
		{name: "everything loaded", loaded: 10, total: 10},
		{name: "server returned more than total", loaded: 12, total: 10},
		{name: "nothing fetched yet", loaded: 0, total: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(10)
			for i := range tt.loaded {
				s.Products = append(s.Products, newTestProduct(i+1, "p"))
			}
			s.TotalProducts = tt.total
			s.Loading = tt.loading

			page, ok := s.NextPage()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPage, page)
		})
	}
}

func TestProductLookup(t *testing.T) {
	s := NewState(10)
	s.Products = []product.Product{newTestProduct(4, "Lamp")}

	p, err := s.Product(4)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Title)

	_, err = s.Product(5)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestClone_IsDeep(t *testing.T) {
	s := NewState(10).ToggleFavorite(1).categoriesLoaded([]string{"beauty"})
	s.Products = []product.Product{newTestProduct(1, "Lamp")}

	c := s.Clone()
	c.Products[0].Images[0] = "mutated"
	c.Categories[0] = "mutated"
	c.Favorites[99] = struct{}{}

	assert.NotEqual(t, "mutated", s.Products[0].Images[0])
	assert.Equal(t, "all", s.Categories[0])
	assert.False(t, s.IsFavorite(99))
}
