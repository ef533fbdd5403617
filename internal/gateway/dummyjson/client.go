// Package dummyjson implements product.Gateway against the dummyjson.com
// products API.
package dummyjson

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/shoplist/internal/domain/product"
)

// DefaultBaseURL is the public demo catalog.
const DefaultBaseURL = "https://dummyjson.com"

const (
	maxBodySize = 8 << 20
	scopeName   = "github.com/xenking/shoplist/internal/gateway/dummyjson"
)

var _ product.Gateway = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds a single request. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
	// Transport defaults to http.DefaultTransport. It is always wrapped with
	// otelhttp.
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = otel.GetMeterProvider()
	}
}

// Client talks to the catalog gateway over HTTP.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	tracer   trace.Tracer
	requests metric.Int64Counter
}

// New creates a Client from opts.
func New(opts Options) (*Client, error) {
	opts.setDefaults()

	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	requests, err := opts.MeterProvider.Meter(scopeName).Int64Counter("catalog.gateway.requests",
		metric.WithDescription("Catalog gateway requests by endpoint and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: otelhttp.NewTransport(opts.Transport,
				otelhttp.WithTracerProvider(opts.TracerProvider),
				otelhttp.WithMeterProvider(opts.MeterProvider),
			),
		},
		tracer:   opts.TracerProvider.Tracer(scopeName),
		requests: requests,
	}, nil
}

// ListProducts fetches one page of products, scoped to req.Category unless
// it is product.AllCategories.
func (c *Client) ListProducts(ctx context.Context, req product.PageRequest) (_ *product.Page, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ListProducts", trace.WithAttributes(
		attribute.Int("catalog.page", req.Page),
		attribute.Int("catalog.limit", req.Limit),
		attribute.String("catalog.category", req.Category),
	))
	defer func() { c.finish(ctx, span, "products", rerr) }()

	path := "/products"
	if req.Scoped() {
		path += "/category/" + url.PathEscape(req.Category)
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("skip", strconv.Itoa(req.Skip()))

	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(body)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListCategories fetches the category names known to the gateway.
func (c *Client) ListCategories(ctx context.Context) (_ []string, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ListCategories")
	defer func() { c.finish(ctx, span, "categories", rerr) }()

	body, err := c.get(ctx, "/products/categories", nil)
	if err != nil {
		return nil, err
	}
	return decodeCategories(body)
}

// Ping checks that the gateway answers with a well-formed single-item page.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListProducts(ctx, product.PageRequest{Page: 1, Limit: 1})
	return err
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", product.ErrGatewayUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", product.ErrGatewayUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%w: HTTP status %d", product.ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", product.ErrGatewayUnavailable, err)
	}
	return body, nil
}

func (c *Client) finish(ctx context.Context, span trace.Span, endpoint string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, product.ErrBadStatus):
		outcome = "bad_status"
	case errors.Is(err, product.ErrMalformedResponse):
		outcome = "malformed"
	default:
		outcome = "unavailable"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	))
}
