// Package catalog reads the product catalog from the upstream store API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/allevo/cloud-store/internal/metrics"
	"github.com/allevo/cloud-store/internal/model"
)

const (
	// DefaultBaseURL is the public fake store API.
	DefaultBaseURL = "https://fakestoreapi.com"
	// DefaultTimeout is the total request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultCacheTTL is how long a product listing stays cached.
	DefaultCacheTTL = 5 * time.Minute

	maxResponseBytes = 5 << 20
)

// Catalog errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUpstream        = errors.New("catalog upstream failure")
)

var categoriesByID = map[int]string{
	1: "electronics",
	2: "jewelery",
	3: "men's clothing",
	4: "women's clothing",
}

// Categories returns the known categories ordered by id.
func Categories() []model.Category {
	out := make([]model.Category, 0, len(categoriesByID))
	for id, name := range categoriesByID {
		out = append(out, model.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CategoryName returns the upstream name of a category id.
func CategoryName(id int) (string, bool) {
	name, ok := categoriesByID[id]
	return name, ok
}

// categoryID resolves an upstream category name; unknown names map to 0.
func categoryID(name string) int {
	for id, n := range categoriesByID {
		if n == name {
			return id
		}
	}
	return 0
}

// Cache stores normalized product listings.
type Cache interface {
	GetProducts(ctx context.Context, key string) ([]model.Product, error)
	SetProducts(ctx context.Context, key string, products []model.Product, ttl time.Duration) error
}

// ErrCacheMiss is returned by Cache implementations when key is absent.
var ErrCacheMiss = errors.New("catalog cache miss")

// Client fetches and normalizes products from the upstream catalog.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithCache enables read-through caching of listings.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		if ttl > 0 {
			cl.cacheTTL = ttl
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) {
		cl.http = hc
	}
}

// NewClient creates a catalog client for baseURL.
func NewClient(baseURL string, timeout time.Duration, recorder metrics.Recorder, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:  baseURL,
		http:     NewHTTPClient(timeout),
		cacheTTL: DefaultCacheTTL,
		metrics:  recorder,
		logger:   logger.With("component", "catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient creates an HTTP client with bounded timeouts for upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// ListProducts returns all products, or those of one category when
// categoryID is non-nil and non-zero.
func (c *Client) ListProducts(ctx context.Context, categoryID *int) ([]model.Product, error) {
	path := []string{"products"}
	key := "all"
	if categoryID != nil && *categoryID != 0 {
		name, ok := CategoryName(*categoryID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, *categoryID)
		}
		path = append(path, "category", name)
		key = strconv.Itoa(*categoryID)
	}

	if products, ok := c.fromCache(ctx, key); ok {
		return products, nil
	}

	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return nil, fmt.Errorf("build catalog url: %w", err)
	}

	products, err := c.fetch(ctx, endpoint)
	if err != nil {
		c.metrics.IncCatalogUpstreamError()
		c.logger.Error("catalog_fetch_failed", "url", endpoint, "error", err)
		return nil, err
	}

	c.toCache(ctx, key, products)
	return products, nil
}

func (c *Client) fromCache(ctx context.Context, key string) ([]model.Product, bool) {
	if c.cache == nil {
		return nil, false
	}
	products, err := c.cache.GetProducts(ctx, key)
	if err == nil {
		c.metrics.IncCatalogCacheHit()
		return products, true
	}
	c.metrics.IncCatalogCacheMiss()
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("catalog_cache_read_failed", "key", key, "error", err)
	}
	return nil, false
}

func (c *Client) toCache(ctx context.Context, key string, products []model.Product) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetProducts(ctx, key, products, c.cacheTTL); err != nil {
		c.logger.Warn("catalog_cache_write_failed", "key", key, "error", err)
	}
}

type upstreamProduct struct {
	ID          *int64           `json:"id"`
	Title       *string          `json:"title"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
	Rating      *struct {
		Rate  *float64 `json:"rate"`
		Count *int     `json:"count"`
	} `json:"rating"`
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var raw []upstreamProduct
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	products := make([]model.Product, 0, len(raw))
	for i, p := range raw {
		product, err := normalize(p)
		if err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", ErrUpstream, i, err)
		}
		products = append(products, product)
	}
	return products, nil
}

func normalize(p upstreamProduct) (model.Product, error) {
	switch {
	case p.ID == nil:
		return model.Product{}, errors.New("missing id")
	case p.Title == nil:
		return model.Product{}, errors.New("missing title")
	case p.Price == nil:
		return model.Product{}, errors.New("missing price")
	case p.Description == nil:
		return model.Product{}, errors.New("missing description")
	case p.Category == nil:
		return model.Product{}, errors.New("missing category")
	case p.Image == nil:
		return model.Product{}, errors.New("missing image")
	case p.Rating == nil || p.Rating.Rate == nil || p.Rating.Count == nil:
		return model.Product{}, errors.New("missing rating")
	}

	return model.Product{
		ID:          *p.ID,
		Title:       *p.Title,
		Price:       *p.Price,
		Description: *p.Description,
		Category: model.Category{
			ID:   categoryID(*p.Category),
			Name: *p.Category,
		},
		Image: *p.Image,
		Rating: model.Rating{
			Rate:  *p.Rating.Rate,
			Count: *p.Rating.Count,
		},
	}, nil
}
