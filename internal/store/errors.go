// Package store persists shopping carts.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// Store errors.
var (
	// ErrCartNotFound is returned when the owner has no cart yet.
	ErrCartNotFound = errors.New("cart not found")
	// ErrStoreUnavailable wraps transport, timeout and server selection failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreUnreachable is the part of ErrStoreUnavailable raised before a
	// command reached the server. Only these failures are safe to run again.
	ErrStoreUnreachable error = &unavailableError{cause: errors.New("no reachable server"), unsent: true}
)

// unavailableError keeps the driver error for logging while matching ErrStoreUnavailable.
type unavailableError struct {
	cause  error
	unsent bool
}

func (e *unavailableError) Error() string {
	return "store unavailable: " + e.cause.Error()
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable || (e.unsent && target == ErrStoreUnreachable)
}

func (e *unavailableError) Unwrap() error {
	return e.cause
}

// classify maps a driver error onto the store error set.
// Errors caused by the caller's own context are returned untouched.
// Timeouts and network errors may arrive after the server applied the
// command, so they are unavailable but never unreachable.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrCartNotFound
	}

	var selErr topology.ServerSelectionError
	if errors.As(err, &selErr) || errors.Is(err, mongo.ErrClientDisconnected) {
		return &unavailableError{cause: err, unsent: true}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return &unavailableError{cause: err}
	}
	return err
}
