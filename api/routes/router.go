package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/replyflow-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/replyflow-backend/api/controllers/webhooks"
	"github.com/angelmondragon/replyflow-backend/api/middleware"
	"github.com/angelmondragon/replyflow-backend/internal/activity"
	"github.com/angelmondragon/replyflow-backend/internal/dispatch"
	"github.com/angelmondragon/replyflow-backend/pkg/auth/session"
	"github.com/angelmondragon/replyflow-backend/pkg/config"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	sessions session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	pipelineMetrics *metrics.PipelineMetrics,
	intake webhookcontrollers.EntrySubmitter,
	lifecycle controllers.RouteLifecycle,
	activityService activity.Service,
	failedEvents *dispatch.FailedEventService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks/meta", func(r chi.Router) {
		r.Get("/", webhookcontrollers.MetaVerify(cfg.Meta.VerifyToken, pipelineMetrics, logg))
		r.Post("/", webhookcontrollers.MetaWebhook(cfg.Meta.AppSecret, intake, pipelineMetrics, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/automations", func(r chi.Router) {
			r.Post("/routes/activate", controllers.ActivateRoute(lifecycle, logg))
			r.Post("/routes/deactivate", controllers.DeactivateRoute(lifecycle, logg))
			r.Delete("/{automationId}", controllers.DeleteAutomation(lifecycle, logg))
		})
		r.Get("/v1/activity", controllers.ListActivity(activityService, logg))
		r.Get("/v1/failed-events", controllers.ListFailedEvents(failedEvents, logg))
	})

	return r
}
