package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/allevo/cloud-store/internal/metrics"
	"github.com/allevo/cloud-store/internal/model"
	"github.com/allevo/cloud-store/internal/store"
)

// TimestampLayout renders cart timestamps as UTC ISO-8601 with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// CartStore is the persistence contract the cart service depends on.
type CartStore interface {
	GetByOwner(ctx context.Context, owner string) (*model.Cart, error)
	AppendItem(ctx context.Context, owner string, item model.CartItem) (*model.Cart, error)
}

// CartView is the client-facing shape of a cart.
type CartView struct {
	Username   string
	InsertDate string
	UpdateDate string
	Products   []ItemView
}

// ItemView is the client-facing shape of a cart item.
type ItemView struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
}

// NewCartView copies the exposed fields of cart into a view.
func NewCartView(cart *model.Cart) *CartView {
	products := make([]ItemView, 0, len(cart.Items))
	for _, item := range cart.Items {
		products = append(products, ItemView{
			ID:          item.ID,
			Title:       item.Title,
			Price:       item.Price,
			Description: item.Description,
		})
	}
	return &CartView{
		Username:   cart.Owner,
		InsertDate: cart.CreatedAt.UTC().Format(TimestampLayout),
		UpdateDate: cart.UpdatedAt.UTC().Format(TimestampLayout),
		Products:   products,
	}
}

// CartServiceOption customizes a CartService.
type CartServiceOption func(*CartService)

// WithRetryPolicy overrides the store retry policy.
func WithRetryPolicy(p RetryPolicy) CartServiceOption {
	return func(s *CartService) {
		s.retry = p
	}
}

// CartService enforces cart authorization and delegates persistence to a CartStore.
type CartService struct {
	store   CartStore
	retry   RetryPolicy
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewCartService creates a new CartService.
func NewCartService(cartStore CartStore, recorder metrics.Recorder, logger *slog.Logger, opts ...CartServiceOption) *CartService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &CartService{
		store:   cartStore,
		retry:   DefaultRetryPolicy(),
		metrics: recorder,
		logger:  logger.With("component", "service.cart"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCart returns the cart of owner if identity is allowed to read it.
func (s *CartService) FetchCart(ctx context.Context, identity *model.Identity, owner string) (*CartView, error) {
	if err := s.authorize(identity, owner, OpRead); err != nil {
		return nil, err
	}

	s.logger.Debug("fetch_cart", "owner", owner)
	cart, err := withRetry(ctx, s.retry, func(ctx context.Context) (*model.Cart, error) {
		start := time.Now()
		defer func() { s.metrics.ObserveStoreDuration(OpRead.String(), time.Since(start)) }()
		return s.store.GetByOwner(ctx, owner)
	}, s.onRetry(OpRead, owner))
	if err != nil {
		return nil, s.storeFailure(OpRead, owner, err)
	}

	s.metrics.IncCartOperation(OpRead.String(), metrics.OutcomeSuccess)
	return NewCartView(cart), nil
}

// AddItem appends item to the cart of owner, creating the cart on first use.
// The caller must hold the admin group and own the cart.
func (s *CartService) AddItem(ctx context.Context, identity *model.Identity, owner string, item model.CartItem) (*CartView, error) {
	if err := s.authorize(identity, owner, OpWrite); err != nil {
		return nil, err
	}

	s.logger.Info("add_cart_item", "owner", owner, "product_id", item.ID)
	cart, err := withRetry(ctx, s.retry, func(ctx context.Context) (*model.Cart, error) {
		start := time.Now()
		defer func() { s.metrics.ObserveStoreDuration(OpWrite.String(), time.Since(start)) }()
		return s.store.AppendItem(ctx, owner, item)
	}, s.onRetry(OpWrite, owner))
	if err != nil {
		return nil, s.storeFailure(OpWrite, owner, err)
	}

	s.metrics.IncCartOperation(OpWrite.String(), metrics.OutcomeSuccess)
	return NewCartView(cart), nil
}

func (s *CartService) authorize(identity *model.Identity, owner string, op Operation) error {
	decision := Decide(identity, owner, op)
	if decision == Allow {
		return nil
	}

	subject := ""
	if identity != nil {
		subject = identity.SubjectID
	}
	s.logger.Warn("cart_access_denied",
		"subject", subject,
		"owner", owner,
		"op", op.String(),
		"decision", decision.String(),
	)
	s.metrics.IncCartOperation(op.String(), decision.String())
	return denial(decision, op)
}

func (s *CartService) onRetry(op Operation, owner string) func(error) {
	return func(err error) {
		s.metrics.IncStoreRetry(op.String())
		s.logger.Warn("cart_store_retry", "op", op.String(), "owner", owner, "error", err)
	}
}

func (s *CartService) storeFailure(op Operation, owner string, err error) error {
	switch {
	case errors.Is(err, store.ErrCartNotFound):
		s.metrics.IncCartOperation(op.String(), KindCartNotFound.String())
		return &Error{Kind: KindCartNotFound, Message: ErrCartNotFound.Message, Err: err}
	case errors.Is(err, store.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		s.metrics.IncCartOperation(op.String(), KindStoreUnavailable.String())
		s.logger.Error("cart_store_unavailable", "op", op.String(), "owner", owner, "error", err)
		return &Error{Kind: KindStoreUnavailable, Message: ErrStoreUnavailable.Message, Err: err}
	default:
		s.metrics.IncCartOperation(op.String(), metrics.OutcomeFailure)
		return fmt.Errorf("%s cart of %s: %w", op, owner, err)
	}
}
