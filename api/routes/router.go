package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/loomworks-backend/api/controllers"
	inventorycontrollers "github.com/angelmondragon/loomworks-backend/api/controllers/inventory"
	purchasingcontrollers "github.com/angelmondragon/loomworks-backend/api/controllers/purchasing"
	workordercontrollers "github.com/angelmondragon/loomworks-backend/api/controllers/workorders"
	"github.com/angelmondragon/loomworks-backend/api/middleware"
	"github.com/angelmondragon/loomworks-backend/internal/consumption"
	"github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/internal/purchasing"
	"github.com/angelmondragon/loomworks-backend/internal/workorders"
	"github.com/angelmondragon/loomworks-backend/pkg/config"
	"github.com/angelmondragon/loomworks-backend/pkg/db"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	inventoryService inventory.Service,
	supplierService purchasing.SupplierService,
	purchasingService purchasing.Service,
	workOrderService workorders.Service,
	laborService workorders.LaborService,
	consumptionService consumption.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// A typed nil client must not reach the interfaces below.
	var (
		redisPinger controllers.Pinger
		idemStore   redis.IdempotencyStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		idemStore = redisClient
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1", func(r chi.Router) {
			r.Route("/materials", func(r chi.Router) {
				r.Get("/", inventorycontrollers.ListMaterials(inventoryService, logg))
				r.Post("/", inventorycontrollers.CreateMaterial(inventoryService, logg))
				r.Get("/low-stock", inventorycontrollers.ListLowStock(inventoryService, logg))
				r.Get("/{id}", inventorycontrollers.GetMaterial(inventoryService, logg))
				r.Patch("/{id}", inventorycontrollers.UpdateMaterial(inventoryService, logg))
				r.Delete("/{id}", inventorycontrollers.DeactivateMaterial(inventoryService, logg))
				r.Post("/{id}/adjust", inventorycontrollers.AdjustStock(inventoryService, logg))
			})
			r.Get("/stock-movements", inventorycontrollers.ListMovements(inventoryService, logg))

			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", purchasingcontrollers.ListSuppliers(supplierService, logg))
				r.Post("/", purchasingcontrollers.CreateSupplier(supplierService, logg))
				r.Get("/{id}", purchasingcontrollers.GetSupplier(supplierService, logg))
			})

			r.Route("/purchase-orders", func(r chi.Router) {
				r.Get("/", purchasingcontrollers.List(purchasingService, logg))
				r.Post("/", purchasingcontrollers.Create(purchasingService, logg))
				r.Get("/unpaid", purchasingcontrollers.ListUnpaid(purchasingService, logg))
				r.Get("/{id}", purchasingcontrollers.Detail(purchasingService, logg))
				r.Patch("/{id}", purchasingcontrollers.Update(purchasingService, logg))
				r.Delete("/{id}", purchasingcontrollers.Delete(purchasingService, logg))
				r.Post("/{id}/receive", purchasingcontrollers.Receive(purchasingService, logg))
			})

			r.Route("/work-orders", func(r chi.Router) {
				r.Get("/", workordercontrollers.List(workOrderService, logg))
				r.Post("/from-order/{orderId}", workordercontrollers.CreateFromOrder(workOrderService, logg))
				r.Get("/{id}", workordercontrollers.Detail(workOrderService, logg))
				r.Patch("/{id}", workordercontrollers.Update(workOrderService, logg))
				r.Post("/{id}/advance", workordercontrollers.Advance(workOrderService, logg))
				r.Post("/{id}/hold", workordercontrollers.Lifecycle(workOrderService, "hold", logg))
				r.Post("/{id}/resume", workordercontrollers.Lifecycle(workOrderService, "resume", logg))
				r.Post("/{id}/cancel", workordercontrollers.Lifecycle(workOrderService, "cancel", logg))
				r.Get("/{id}/stages", workordercontrollers.Stages(workOrderService, logg))
				r.Get("/{id}/active-stage", workordercontrollers.ActiveStage(workOrderService, logg))
				r.Get("/{id}/media", workordercontrollers.ListMedia(workOrderService, logg))
				r.Post("/{id}/media", workordercontrollers.AttachMedia(workOrderService, logg))
				r.Post("/{id}/consume", workordercontrollers.Consume(consumptionService, logg))
				r.Get("/{id}/material-cost", workordercontrollers.MaterialCost(consumptionService, logg))
				r.Post("/{id}/artisans", workordercontrollers.AssignArtisan(laborService, logg))
			})

			r.Route("/artisans", func(r chi.Router) {
				r.Get("/", workordercontrollers.ListArtisans(laborService, logg))
				r.Post("/", workordercontrollers.CreateArtisan(laborService, logg))
			})

			r.Route("/artisan-assignments", func(r chi.Router) {
				r.Get("/unpaid", workordercontrollers.ListUnpaidAssignments(laborService, logg))
				r.Patch("/{id}/payment", workordercontrollers.UpdateAssignmentPayment(laborService, logg))
			})
		})
	})

	return r
}
