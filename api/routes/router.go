package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tally-backend/api/controllers"
	"github.com/angelmondragon/tally-backend/api/middleware"
	customer "github.com/angelmondragon/tally-backend/internal/customers"
	invoice "github.com/angelmondragon/tally-backend/internal/invoices"
	product "github.com/angelmondragon/tally-backend/internal/products"
	"github.com/angelmondragon/tally-backend/pkg/auth"
	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/redis"
)

// NewRouter wires every HTTP route. redisClient and gatherer may be nil, in
// which case idempotent replays and /metrics are disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	productService product.Service,
	customerService customer.Service,
	invoiceService invoice.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"database": dbP}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		readiness["redis"] = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.FeatureFlags.AuthEnabled {
			r.Use(middleware.Auth(cfg.JWT, logg))
		}
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		adminOnly := middleware.RequireRole(logg, auth.RoleAdmin)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.With(adminOnly).Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(customerService, logg))
			r.Post("/", controllers.CreateCustomer(customerService, logg))
			r.Get("/{customerId}", controllers.GetCustomer(customerService, logg))
			r.Patch("/{customerId}", controllers.UpdateCustomer(customerService, logg))
			r.With(adminOnly).Delete("/{customerId}", controllers.DeleteCustomer(customerService, logg))
			r.Get("/{customerId}/invoices", controllers.ListCustomerInvoices(invoiceService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.ListInvoices(invoiceService, logg))
			r.Post("/", controllers.CreateInvoice(invoiceService, logg))
			r.Get("/{invoiceId}", controllers.GetInvoice(invoiceService, logg))
		})
	})

	return r
}
