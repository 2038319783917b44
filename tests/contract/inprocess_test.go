package contract

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/handler"
	"github.com/allevo/cloud-store/internal/model"
	"github.com/allevo/cloud-store/internal/service"
	"github.com/allevo/cloud-store/internal/store"
)

// specHost matches the server entry of the OpenAPI document so the
// gorillamux router resolves in-process requests.
const specHost = "http://localhost:8080"

func newCartRouter(identity *model.Identity) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	carts := handler.NewCartHandler(service.NewCartService(store.NewMemoryStore(), nil, logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
		})
	})
	r.Get("/users/{username}/cart", carts.Get)
	r.Put("/users/{username}/cart/products", carts.AddProduct)
	r.Get("/products/categories", handler.NewProductHandler(nil, logger).Categories)
	return r
}

// TestInProcessResponsesMatchSpec validates handler output against the
// OpenAPI document without a running server.
func TestInProcessResponsesMatchSpec(t *testing.T) {
	cfg := getConfig(t)
	_, router := loadSpec(t, cfg.SpecPath)

	admin := &model.Identity{SubjectID: "allevo", Groups: []string{model.GroupAdmin}}
	reader := &model.Identity{SubjectID: "foobar", Groups: []string{model.GroupReader}}
	item := `{"id":1,"title":"Fjallraven - Foldsack No. 1 Backpack","price":109.95,"description":"Your perfect pack"}`

	cases := []struct {
		name       string
		identity   *model.Identity
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"add item", admin, http.MethodPut, "/users/allevo/cart/products", item, http.StatusOK},
		{"cart not found", admin, http.MethodGet, "/users/allevo/cart", "", http.StatusNotFound},
		{"other users cart", admin, http.MethodGet, "/users/foobar/cart", "", http.StatusUnauthorized},
		{"reader cannot write", reader, http.MethodPut, "/users/foobar/cart/products", item, http.StatusForbidden},
		{"invalid item", admin, http.MethodPut, "/users/allevo/cart/products", `{"id":1,"price":1}`, http.StatusBadRequest},
		{"categories", admin, http.MethodGet, "/products/categories", "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, specHost+tc.path, body)
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			newCartRouter(tc.identity).ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}

			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				t.Fatalf("Could not find route in spec: %v", err)
			}

			input := &openapi3filter.ResponseValidationInput{
				RequestValidationInput: &openapi3filter.RequestValidationInput{
					Request:    req,
					PathParams: pathParams,
					Route:      route,
				},
				Status: rec.Code,
				Header: rec.Header(),
				Body:   io.NopCloser(strings.NewReader(rec.Body.String())),
			}
			if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
				t.Errorf("Response validation failed: %v", err)
			}
		})
	}
}
