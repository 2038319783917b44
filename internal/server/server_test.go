package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func testServer(handler http.Handler) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(handler, Options{Port: 0, ShutdownTimeout: 2 * time.Second}, logger)
}

func TestShutdown_RunsHooksInReverseOrder(t *testing.T) {
	s := testServer(http.NotFoundHandler())

	var order []string
	for _, name := range []string{"mongodb", "redis", "postgres"} {
		name := name
		s.OnShutdown(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	want := []string{"postgres", "redis", "mongodb"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestShutdown_JoinsHookErrors(t *testing.T) {
	s := testServer(http.NotFoundHandler())
	errRedis := errors.New("redis close failed")
	ran := false

	s.OnShutdown("mongodb", func(ctx context.Context) error {
		ran = true
		return nil
	})
	s.OnShutdown("redis", func(ctx context.Context) error { return errRedis })

	err := s.Shutdown(context.Background())
	if !errors.Is(err, errRedis) {
		t.Fatalf("Shutdown error = %v, want %v", err, errRedis)
	}
	if !ran {
		t.Error("a failing hook must not stop later hooks")
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	s := testServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	closed := make(chan struct{})
	s.OnShutdown("store", func(ctx context.Context) error {
		close(closed)
		return nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	select {
	case <-closed:
	default:
		t.Error("shutdown hook did not run")
	}
}
