package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lamnguyen-dev/rentalcrm-backend/api/controllers"
	"github.com/lamnguyen-dev/rentalcrm-backend/api/middleware"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	pkgredis "github.com/lamnguyen-dev/rentalcrm-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               controllers.Pinger
	Redis            *pkgredis.Client
	MetricsGatherer  prometheus.Gatherer
	SearchService    controllers.InventorySearcher
	OrderService     controllers.OrderPlacer
	WarningReader    controllers.WarningReader
	WarningResolver  controllers.WarningResolver
	IdempotencyStore pkgredis.IdempotencyStore
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, map[string]controllers.Pinger{
			"database": d.DB,
			"redis":    pingerOrNil(d.Redis),
		}))
	})

	if d.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(d.IdempotencyStore, d.Logger))

		r.Get("/inventory/search", controllers.InventorySearch(d.SearchService, d.Logger))

		r.Post("/orders", controllers.PlaceOrder(d.OrderService, d.Logger))
		r.Get("/orders/affected-orders", controllers.AffectedOrders(d.WarningReader, d.Logger))
		r.Get("/orders/overlapping", controllers.OverlappingOrders(d.WarningReader, d.Logger))
		r.Post("/orders/resolve-warning", controllers.ResolveWarning(d.WarningResolver, d.Logger))
		r.Get("/orders/with-warnings", controllers.OrdersWithWarnings(d.WarningReader, d.Logger))
	})

	return r
}

func pingerOrNil(c *pkgredis.Client) controllers.Pinger {
	if c == nil {
		return nil
	}
	return c
}
