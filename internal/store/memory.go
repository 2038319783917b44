package store

import (
	"context"
	"sync"
	"time"

	"github.com/allevo/cloud-store/internal/model"
)

// MemoryStore keeps carts in process memory with the same semantics as MongoStore.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*model.Cart
	now   func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the time source used for cart timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory cart store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		carts: make(map[string]*model.Cart),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByOwner returns a copy of the owner's cart or ErrCartNotFound.
func (s *MemoryStore) GetByOwner(ctx context.Context, owner string) (*model.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[owner]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart.Clone(), nil
}

// AppendItem creates the cart on first use and appends item.
func (s *MemoryStore) AppendItem(ctx context.Context, owner string, item model.CartItem) (*model.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	cart, ok := s.carts[owner]
	if !ok {
		cart = &model.Cart{Owner: owner, CreatedAt: now}
		s.carts[owner] = cart
	} else {
		now = nextUpdate(cart.UpdatedAt, now)
	}
	cart.Items = append(cart.Items, item)
	cart.UpdatedAt = now
	return cart.Clone(), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) cartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// nextUpdate returns now, or prev plus one millisecond when now does not
// advance past prev. Every append moves the update timestamp forward.
func nextUpdate(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}
