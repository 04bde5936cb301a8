package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customer "github.com/angelmondragon/tally-backend/internal/customers"
	invoice "github.com/angelmondragon/tally-backend/internal/invoices"
	product "github.com/angelmondragon/tally-backend/internal/products"
	"github.com/angelmondragon/tally-backend/pkg/auth"
	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/metrics"
	"github.com/angelmondragon/tally-backend/pkg/outbox"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, cfg *config.Config, dbP stubPinger) http.Handler {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromConn(conn)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	registry := prometheus.NewRegistry()

	productRepo := product.NewRepository(conn)
	customerRepo := customer.NewRepository(conn)

	productService, err := product.NewService(productRepo, client)
	require.NoError(t, err)
	customerService, err := customer.NewService(customerRepo)
	require.NoError(t, err)
	invoiceService, err := invoice.NewService(
		invoice.NewRepository(conn),
		productRepo,
		customerRepo,
		client,
		outbox.NewService(outbox.NewRepository(conn), logg),
		metrics.NewInvoiceMetrics(registry),
		logg,
		cfg.Invoice,
	)
	require.NoError(t, err)

	return NewRouter(cfg, logg, dbP, nil, registry, productService, customerService, invoiceService)
}

func baseConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     config.JWTConfig{Secret: "router-secret", Issuer: "tally"},
		Invoice: config.InvoiceConfig{MaxItems: 20, TxTimeout: 5 * time.Second},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, baseConfig(), stubPinger{})

	rec, _ := do(t, router, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Tally-Env"))

	rec, _ = do(t, router, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := newTestRouter(t, baseConfig(), stubPinger{err: errors.New("connection refused")})

	rec, env := do(t, router, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), "database")
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, baseConfig(), stubPinger{})

	rec, env := do(t, router, http.MethodPost, "/api/v1/products", `{"name":"Diesel","type":"fuel","price":"10.00","stock":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	diesel := decodeData[product.ProductDTO](t, env)
	assert.Equal(t, "10.00", diesel.Price)

	rec, env = do(t, router, http.MethodPost, "/api/v1/customers", `{"name":"Acme Fleet","email":"Billing@Acme.test","phones":["555-0100"],"address":{"city":"Springfield"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	buyer := decodeData[customer.CustomerDTO](t, env)
	assert.Equal(t, "billing@acme.test", buyer.Email)

	body := fmt.Sprintf(`{"customerId":%d,"items":[{"productId":%d,"quantity":40}]}`, buyer.ID, diesel.ID)
	rec, env = do(t, router, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[invoice.InvoiceDTO](t, env)
	assert.Equal(t, "400.00", created.Total)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "10.00", created.Items[0].PriceAtSale)
	require.NotNil(t, created.Items[0].Product)
	assert.Equal(t, 60, created.Items[0].Product.Stock)
	require.NotNil(t, created.Customer)
	assert.Equal(t, "Acme Fleet", created.Customer.Name)

	body = fmt.Sprintf(`{"customerId":%d,"items":[{"productId":%d,"quantity":100}]}`, buyer.ID, diesel.ID)
	rec, env = do(t, router, http.MethodPost, "/api/v1/invoices", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"product_id":%d,"product_name":"Diesel","requested":100,"available":60}`, diesel.ID), string(env.Error.Details))

	rec, env = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeData[invoice.InvoiceDTO](t, env)
	assert.Equal(t, created.ID, fetched.ID)

	rec, env = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/customers/%d/invoices", buyer.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]invoice.InvoiceDTO](t, env), 1)

	rec, env = do(t, router, http.MethodGet, "/api/v1/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]invoice.InvoiceDTO](t, env), 1)

	rec, env = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", diesel.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, decodeData[product.ProductDTO](t, env).Stock)

	rec, env = do(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/customers/%d", buyer.ID), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	rec, _ = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `invoice_create_total{outcome="created"} 1`)
	assert.Contains(t, rec.Body.String(), `invoice_create_total{outcome="insufficient_stock"} 1`)
}

func TestInvoiceNotFoundResponses(t *testing.T) {
	router := newTestRouter(t, baseConfig(), stubPinger{})

	rec, env := do(t, router, http.MethodPost, "/api/v1/invoices", `{"customerId":99,"items":[{"productId":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.JSONEq(t, `{"kind":"customer","id":99}`, string(env.Error.Details))

	rec, env = do(t, router, http.MethodGet, "/api/v1/invoices/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"kind":"invoice","id":42}`, string(env.Error.Details))
}

func TestRequestValidation(t *testing.T) {
	router := newTestRouter(t, baseConfig(), stubPinger{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"unknown field", http.MethodPost, "/api/v1/invoices", `{"customerId":1,"items":[{"productId":1,"quantity":1}],"discount":5}`},
		{"empty items", http.MethodPost, "/api/v1/invoices", `{"customerId":1,"items":[]}`},
		{"zero quantity", http.MethodPost, "/api/v1/invoices", `{"customerId":1,"items":[{"productId":1,"quantity":0}]}`},
		{"negative quantity", http.MethodPost, "/api/v1/invoices", `{"customerId":1,"items":[{"productId":1,"quantity":-3}]}`},
		{"bad price", http.MethodPost, "/api/v1/products", `{"name":"Oil","price":"ten","stock":1}`},
		{"bad product type", http.MethodPost, "/api/v1/products", `{"name":"Oil","type":"gas","price":"1.00","stock":1}`},
		{"bad email", http.MethodPost, "/api/v1/customers", `{"name":"Bob","email":"not-an-email"}`},
		{"bad id", http.MethodGet, "/api/v1/invoices/abc", ""},
		{"limit out of range", http.MethodGet, "/api/v1/products?limit=1000", ""},
		{"bad type filter", http.MethodGet, "/api/v1/products?type=gas", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}

func TestProductCatalogueRoutes(t *testing.T) {
	router := newTestRouter(t, baseConfig(), stubPinger{})

	for i, name := range []string{"Diesel", "Unleaded", "Wiper Fluid"} {
		productType := "fuel"
		if i == 2 {
			productType = "other"
		}
		rec, _ := do(t, router, http.MethodPost, "/api/v1/products", fmt.Sprintf(`{"name":%q,"type":%q,"price":"2.50","stock":10}`, name, productType))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := do(t, router, http.MethodGet, "/api/v1/products?type=fuel&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeData[product.ProductListResult](t, env)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Unleaded", page.Items[0].Name)
	require.NotEmpty(t, page.NextCursor)

	rec, env = do(t, router, http.MethodGet, "/api/v1/products?type=fuel&limit=1&cursor="+page.NextCursor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeData[product.ProductListResult](t, env)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Diesel", page.Items[0].Name)

	rec, env = do(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", page.Items[0].ID), `{"price":"3.10","stock":25}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[product.ProductDTO](t, env)
	assert.Equal(t, "3.10", updated.Price)
	assert.Equal(t, 25, updated.Stock)

	rec, _ = do(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", updated.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", updated.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthEnabledRoutes(t *testing.T) {
	cfg := baseConfig()
	cfg.FeatureFlags.AuthEnabled = true
	router := newTestRouter(t, cfg, stubPinger{})

	mint := func(role string) string {
		token, err := auth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, auth.AccessTokenPayload{Subject: "user-" + role, Role: role})
		require.NoError(t, err)
		return "Bearer " + token
	}

	rec, env := do(t, router, http.MethodGet, "/api/v1/products", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	rec, _ = do(t, router, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, router, http.MethodPost, "/api/v1/products", `{"name":"Diesel","price":"1.00","stock":1}`, "Authorization", mint(auth.RoleClerk))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[product.ProductDTO](t, env)

	path := fmt.Sprintf("/api/v1/products/%d", created.ID)
	rec, env = do(t, router, http.MethodDelete, path, "", "Authorization", mint(auth.RoleClerk))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = do(t, router, http.MethodDelete, path, "", "Authorization", mint(auth.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMetricsRouteDisabledWithoutGatherer(t *testing.T) {
	cfg := baseConfig()
	router := NewRouter(cfg, logger.New(logger.Options{Output: io.Discard}), stubPinger{}, nil, nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
