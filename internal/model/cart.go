package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the persisted shopping cart of a single owner.
// Owner is the natural key: there is at most one cart per owner.
type Cart struct {
	Owner     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []CartItem
}

// CartItem is a catalog product appended to a cart. Items are never
// deduplicated: adding the same product twice yields two entries.
type CartItem struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	return &out
}
