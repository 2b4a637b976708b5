// Package cover samples book cover images for a representative spine color.
package cover

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"net/http"
	"sync"
	"time"

	// Register decoders for the formats catalogs serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/readingnook/readingnook-server/internal/color"
)

// Options configures an Extractor.
type Options struct {
	HTTPClient   *http.Client
	FetchTimeout time.Duration
	MaxBytes     int64
}

// sample is the cached outcome for one cover URL. ok=false records a miss.
type sample struct {
	color    string
	blurHash string
	ok       bool
}

// Extractor fetches covers and caches their dominant color per URL.
type Extractor struct {
	http     *http.Client
	logger   *slog.Logger
	timeout  time.Duration
	maxBytes int64

	mu    sync.Mutex
	cache map[string]sample
}

// NewExtractor creates an Extractor. Zero options fall back to a 10s timeout and a 10MB cap.
func NewExtractor(opts Options, logger *slog.Logger) *Extractor {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		http:     opts.HTTPClient,
		logger:   logger,
		timeout:  opts.FetchTimeout,
		maxBytes: opts.MaxBytes,
		cache:    make(map[string]sample),
	}
}

// Dominant returns the cover's dominant color as #RRGGBB. ok is false when
// the image can't be fetched or decoded, or has no usable pixels.
func (e *Extractor) Dominant(ctx context.Context, url string) (string, bool) {
	s := e.sample(ctx, url)
	return s.color, s.ok
}

func (e *Extractor) sample(ctx context.Context, url string) sample {
	if url == "" {
		return sample{}
	}

	e.mu.Lock()
	cached, found := e.cache[url]
	e.mu.Unlock()
	if found {
		return cached
	}

	s, cacheable := e.extract(ctx, url)
	if cacheable {
		e.mu.Lock()
		e.cache[url] = s
		e.mu.Unlock()
	}
	return s
}

// extract does the uncached work. Cancellation by the caller is not cached.
func (e *Extractor) extract(ctx context.Context, url string) (sample, bool) {
	data, err := e.fetch(ctx, url)
	if err != nil {
		e.logger.Debug("cover fetch failed", "url", url, "error", err)
		return sample{}, ctx.Err() == nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		e.logger.Debug("cover decode failed", "url", url, "error", err)
		return sample{}, true
	}

	r, g, b, ok := dominantRGB(img)
	if !ok {
		e.logger.Debug("cover has no usable pixels", "url", url, "format", format)
		return sample{}, true
	}

	return sample{
		color:    color.Hex(r, g, b),
		blurHash: blurHash(img),
		ok:       true,
	}, true
}

// Forget drops every cached result.
func (e *Extractor) Forget() {
	e.mu.Lock()
	clear(e.cache)
	e.mu.Unlock()
}
