package imagecache

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"

	"github.com/go-faster/errors"
	_ "golang.org/x/image/webp" // register decoder
)

// maxHeaderRead bounds how much of an image is read to find its size.
const maxHeaderRead = 1 << 20

// ErrBadStatus is returned when the image host answers with a non-2xx status.
var ErrBadStatus = errors.New("image host bad status")

var _ Loader = (*HTTPLoader)(nil)

// HTTPLoader fetches images over HTTP.
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader returns a loader using client, or http.DefaultClient when nil.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{client: client}
}

// Size reads just enough of the image to decode its header.
func (l *HTTPLoader) Size(ctx context.Context, uri string) (Dimensions, error) {
	body, err := l.open(ctx, uri)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() { _ = body.Close() }()

	cfg, format, err := image.DecodeConfig(io.LimitReader(body, maxHeaderRead))
	if err != nil {
		return Dimensions{}, errors.Wrap(err, "decode image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, errors.Errorf("%s image reports %dx%d", format, cfg.Width, cfg.Height)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Prefetch downloads the whole image so intermediate HTTP caches hold it.
func (l *HTTPLoader) Prefetch(ctx context.Context, uri string) error {
	body, err := l.open(ctx, uri)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if _, err := io.Copy(io.Discard, body); err != nil {
		return errors.Wrap(err, "read image")
	}
	return nil
}

func (l *HTTPLoader) open(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get image")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP status %d", ErrBadStatus, resp.StatusCode)
	}
	return resp.Body, nil
}
