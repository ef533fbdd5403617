package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// AllCategories is the synthetic category meaning "no filter".
const AllCategories = "all"

var (
	// ErrNotFound is returned when a product is not part of the loaded page.
	ErrNotFound = errors.New("product not found")
	// ErrGatewayUnavailable is returned when the catalog gateway cannot be reached.
	ErrGatewayUnavailable = errors.New("catalog gateway unavailable")
	// ErrBadStatus is returned when the catalog gateway answers with a non-2xx status.
	ErrBadStatus = errors.New("catalog gateway bad status")
	// ErrMalformedResponse is returned when the gateway body does not have the
	// expected shape, including a page without a products collection.
	ErrMalformedResponse = errors.New("invalid data format received from the catalog gateway")
)

// Product is a catalog item as reported by the gateway. Products are
// immutable once fetched and replaced wholesale on re-fetch.
type Product struct {
	ID                 int
	Title              string
	Description        string
	Price              decimal.Decimal
	DiscountPercentage float64
	Rating             float64
	Stock              int
	Brand              string
	Category           string
	Thumbnail          string
	Images             []string
}

// Clone returns a copy of p that shares no slices with it.
func (p Product) Clone() Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}

// CoverImage returns the URI shown on list cards: the thumbnail when set,
// otherwise the first image.
func (p Product) CoverImage() string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// PageRequest selects one page of the catalog.
type PageRequest struct {
	// Page is 1-based.
	Page  int
	Limit int
	// Category scopes the request; AllCategories or empty means unscoped.
	Category string
}

// Skip returns the number of items preceding the requested page.
func (r PageRequest) Skip() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// Scoped reports whether the request is restricted to a single category.
func (r PageRequest) Scoped() bool {
	return r.Category != "" && r.Category != AllCategories
}

// Page is one page of products and the total the gateway reported.
type Page struct {
	Products []Product
	Total    int
}

// Gateway is the remote catalog consumed by the client.
type Gateway interface {
	ListProducts(ctx context.Context, req PageRequest) (*Page, error)
	ListCategories(ctx context.Context) ([]string, error)
}
