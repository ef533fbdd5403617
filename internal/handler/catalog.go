package handler

import (
	"net/http"

	"github.com/xenking/shoplist/internal/domain/catalog"
	"github.com/xenking/shoplist/internal/domain/product"
)

type productView struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage,omitempty"`
	Rating             float64  `json:"rating,omitempty"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand,omitempty"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
	Favorite           bool     `json:"favorite"`
}

func toProductView(p product.Product, favorite bool) productView {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productView{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price.InexactFloat64(),
		DiscountPercentage: p.DiscountPercentage,
		Rating:             p.Rating,
		Stock:              p.Stock,
		Brand:              p.Brand,
		Category:           p.Category,
		Thumbnail:          p.Thumbnail,
		Images:             images,
		Favorite:           favorite,
	}
}

func toProductViews(st catalog.State, products []product.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = toProductView(p, st.IsFavorite(p.ID))
	}
	return out
}

type catalogView struct {
	Products         []productView `json:"products"`
	Visible          []productView `json:"visible"`
	Loading          bool          `json:"loading"`
	Error            string        `json:"error,omitempty"`
	Categories       []string      `json:"categories"`
	SelectedCategory string        `json:"selectedCategory"`
	SearchQuery      string        `json:"searchQuery"`
	Favorites        []int         `json:"favorites"`
	Page             int           `json:"page"`
	Limit            int           `json:"limit"`
	TotalProducts    int           `json:"totalProducts"`
	HasMore          bool          `json:"hasMore"`
}

func toCatalogView(st catalog.State) catalogView {
	categories := st.Categories
	if categories == nil {
		categories = []string{}
	}
	_, more := st.NextPage()
	return catalogView{
		Products:         toProductViews(st, st.Products),
		Visible:          toProductViews(st, st.Visible()),
		Loading:          st.Loading,
		Error:            st.Error,
		Categories:       categories,
		SelectedCategory: st.SelectedCategory,
		SearchQuery:      st.SearchQuery,
		Favorites:        st.FavoriteIDs(),
		Page:             st.Page,
		Limit:            st.Limit,
		TotalProducts:    st.TotalProducts,
		HasMore:          more,
	}
}

func (h *Handler) respondCatalog(w http.ResponseWriter) {
	respond(w, http.StatusOK, toCatalogView(h.catalog.Snapshot()))
}

func (h *Handler) getCatalog(w http.ResponseWriter, _ *http.Request) {
	h.respondCatalog(w)
}

func (h *Handler) loadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Load(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCatalog(w)
}

func (h *Handler) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCatalog(w)
}

type loadMoreResponse struct {
	Fetched bool        `json:"fetched"`
	Catalog catalogView `json:"catalog"`
}

func (h *Handler) loadMore(w http.ResponseWriter, r *http.Request) {
	fetched, err := h.catalog.LoadMore(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, loadMoreResponse{
		Fetched: fetched,
		Catalog: toCatalogView(h.catalog.Snapshot()),
	})
}

func (h *Handler) fetchCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.FetchCategories(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCatalog(w)
}

type categoryRequest struct {
	Category string `json:"category" validate:"max=100"`
}

func (h *Handler) setCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.catalog.SetSelectedCategory(req.Category)
	h.respondCatalog(w)
}

type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

func (h *Handler) setSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.catalog.SetSearchQuery(req.Query)
	h.respondCatalog(w)
}

type pageRequest struct {
	Page int `json:"page" validate:"min=1"`
}

func (h *Handler) setPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.catalog.SetPage(req.Page)
	h.respondCatalog(w)
}

type favoriteResponse struct {
	ID       int  `json:"id"`
	Favorite bool `json:"favorite"`
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, favoriteResponse{ID: id, Favorite: h.catalog.ToggleFavorite(id)})
}

type dimensionsView struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type productDetails struct {
	productView
	Cover           string          `json:"cover"`
	CoverDimensions *dimensionsView `json:"coverDimensions,omitempty"`
}

// getProduct serves the details screen from the loaded page only.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st := h.catalog.Snapshot()
	p, err := st.Product(id)
	if err != nil {
		fail(w, r, err)
		return
	}

	details := productDetails{
		productView: toProductView(p, st.IsFavorite(id)),
		Cover:       p.CoverImage(),
	}
	if dims, ok := h.images.Dimensions(r.Context(), details.Cover); ok {
		details.CoverDimensions = &dimensionsView{Width: dims.Width, Height: dims.Height}
	}
	respond(w, http.StatusOK, details)
}
