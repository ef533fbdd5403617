// Package handler exposes the catalog, cart and image cache over a JSON view
// API so any UI shell can read state and dispatch intents.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/shoplist/internal/domain/cart"
	"github.com/xenking/shoplist/internal/domain/catalog"
	"github.com/xenking/shoplist/internal/domain/product"
	"github.com/xenking/shoplist/internal/imagecache"
)

const maxBodySize = 64 << 10

// ImageCache is the read side of the image prefetch cache.
type ImageCache interface {
	Dimensions(ctx context.Context, uri string) (imagecache.Dimensions, bool)
}

// Handler serves the view API.
type Handler struct {
	catalog  *catalog.Store
	cart     *cart.Store
	images   ImageCache
	validate *validator.Validate
}

// New creates a Handler over the given stores.
func New(catalogStore *catalog.Store, cartStore *cart.Store, images ImageCache) *Handler {
	return &Handler{
		catalog:  catalogStore,
		cart:     cartStore,
		images:   images,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Mount registers the view API under /api. The fetch middlewares only wrap
// routes that call the catalog gateway.
func (h *Handler) Mount(r chi.Router, fetch ...func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.getCatalog)
			r.Group(func(r chi.Router) {
				r.Use(fetch...)
				r.Post("/load", h.loadCatalog)
				r.Post("/refresh", h.refreshCatalog)
				r.Post("/more", h.loadMore)
				r.Post("/categories/fetch", h.fetchCategories)
			})
			r.Put("/category", h.setCategory)
			r.Put("/search", h.setSearch)
			r.Put("/page", h.setPage)
			r.Post("/favorites/{id}", h.toggleFavorite)
			r.Get("/products/{id}", h.getProduct)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addToCart)
			r.Post("/items/{id}/increment", h.incrementItem)
			r.Post("/items/{id}/decrement", h.decrementItem)
			r.Put("/checkout", h.setCheckout)
			r.Post("/confirm", h.confirmOrder)
		})
		r.Get("/images/dimensions", h.getImageDimensions)
	})
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respond(w, code, errorResponse{Code: code, Message: msg})
}

// fail maps a domain error to its HTTP status.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusUnprocessableEntity, cart.ErrInvalidQuantity.Error())
	case errors.Is(err, product.ErrGatewayUnavailable),
		errors.Is(err, product.ErrBadStatus),
		errors.Is(err, product.ErrMalformedResponse):
		zctx.From(r.Context()).Warn("Catalog gateway error", zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed: "+validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fe.Field() + " must satisfy " + fe.Tag() + "=" + fe.Param()
	}
	return fe.Field() + " is " + fe.Tag()
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
