package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/allevo/cloud-store/internal/catalog"
	"github.com/allevo/cloud-store/internal/model"
)

const catalogKeyPrefix = "catalog:products:"

type cachedProduct struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	CategoryID   int             `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Image        string          `json:"image"`
	Rate         float64         `json:"rate"`
	Count        int             `json:"count"`
}

// GetProducts retrieves a cached product listing.
// Returns catalog.ErrCacheMiss if not found.
func (c *Cache) GetProducts(ctx context.Context, key string) ([]model.Product, error) {
	raw, err := c.client.Get(ctx, catalogKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, catalog.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeProducts(raw)
}

// SetProducts stores a product listing with ttl.
func (c *Cache) SetProducts(ctx context.Context, key string, products []model.Product, ttl time.Duration) error {
	raw, err := encodeProducts(products)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, catalogKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func catalogKey(key string) string {
	return catalogKeyPrefix + key
}

func encodeProducts(products []model.Product) ([]byte, error) {
	entries := make([]cachedProduct, 0, len(products))
	for _, p := range products {
		entries = append(entries, cachedProduct{
			ID:           p.ID,
			Title:        p.Title,
			Price:        p.Price,
			Description:  p.Description,
			CategoryID:   p.Category.ID,
			CategoryName: p.Category.Name,
			Image:        p.Image,
			Rate:         p.Rating.Rate,
			Count:        p.Rating.Count,
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode products: %w", err)
	}
	return raw, nil
}

func decodeProducts(raw []byte) ([]model.Product, error) {
	var entries []cachedProduct
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode cached products: %w", err)
	}
	products := make([]model.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, model.Product{
			ID:          e.ID,
			Title:       e.Title,
			Price:       e.Price,
			Description: e.Description,
			Category:    model.Category{ID: e.CategoryID, Name: e.CategoryName},
			Image:       e.Image,
			Rating:      model.Rating{Rate: e.Rate, Count: e.Count},
		})
	}
	return products, nil
}

var _ catalog.Cache = (*Cache)(nil)
