package dummyjson

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/shoplist/internal/domain/product"
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", product.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// asMalformed tags decoder errors as ErrMalformedResponse, leaving errors
// that already carry it untouched.
func asMalformed(err error) error {
	if errors.Is(err, product.ErrMalformedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", product.ErrMalformedResponse, err)
}

// expectEnd reports anything but whitespace after the top-level value.
func expectEnd(d *jx.Decoder) error {
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return malformed("unexpected data after top-level value")
	}
	return nil
}

// decodePage decodes {"products": [...], "total": n}. A body without a
// products array or with a total that is not a non-negative integer is
// malformed; a missing total falls back to the number of products received.
func decodePage(body []byte) (*product.Page, error) {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return nil, malformed("expected object, got %s", d.Next())
	}

	var (
		page        product.Page
		hasProducts bool
		hasTotal    bool
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "products":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			hasProducts = true
			page.Products = make([]product.Product, 0, 16)
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				if err != nil {
					return err
				}
				page.Products = append(page.Products, p)
				return nil
			})
		case "total":
			if tt := d.Next(); tt != jx.Number {
				return malformed("total: expected number, got %s", tt)
			}
			v, err := d.Int()
			if err != nil {
				return err
			}
			if v < 0 {
				return malformed("total: negative value %d", v)
			}
			page.Total = v
			hasTotal = true
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, asMalformed(err)
	}
	if err := expectEnd(d); err != nil {
		return nil, err
	}

	if !hasProducts {
		return nil, malformed("missing products collection")
	}
	if !hasTotal {
		page.Total = len(page.Products)
	}
	return &page, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var (
		p     product.Product
		hasID bool
	)
	if d.Next() != jx.Object {
		return p, malformed("product: expected object, got %s", d.Next())
	}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Int()
			hasID = err == nil
		case "title":
			p.Title, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "discountPercentage":
			p.DiscountPercentage, err = d.Float64()
		case "rating":
			p.Rating, err = d.Float64()
		case "stock":
			p.Stock, err = d.Int()
		case "brand":
			p.Brand, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "thumbnail":
			p.Thumbnail, err = d.Str()
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				p.Images = append(p.Images, s)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return p, err
	}
	if !hasID {
		return p, malformed("product without id")
	}
	if p.Price.IsNegative() {
		return p, malformed("product %d has negative price", p.ID)
	}
	return p, nil
}

// decodeDecimal keeps the number exactly as it was sent.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if tt := d.Next(); tt != jx.Number {
		return decimal.Decimal{}, malformed("expected number, got %s", tt)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "parse %q", n.String())
	}
	return v, nil
}

// decodeCategories accepts both the legacy list of names and the list of
// {"slug", "name", "url"} objects; for objects the slug is used since it is
// what the category endpoint expects.
func decodeCategories(body []byte) ([]string, error) {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Array {
		return nil, malformed("categories: expected array, got %s", d.Next())
	}

	out := make([]string, 0, 32)
	if err := d.Arr(func(d *jx.Decoder) error {
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return err
			}
			out = append(out, s)
			return nil
		case jx.Object:
			var slug, name string
			if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "slug":
					slug, err = d.Str()
				case "name":
					name, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			if slug == "" {
				slug = name
			}
			if slug == "" {
				return malformed("category without slug or name")
			}
			out = append(out, slug)
			return nil
		default:
			return malformed("category: unexpected %s", d.Next())
		}
	}); err != nil {
		return nil, asMalformed(err)
	}
	if err := expectEnd(d); err != nil {
		return nil, err
	}
	return out, nil
}
