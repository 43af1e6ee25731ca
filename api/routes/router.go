package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clodamigoles/dossiers.vevo/api/controllers"
	"github.com/clodamigoles/dossiers.vevo/api/middleware"
	"github.com/clodamigoles/dossiers.vevo/internal/auth"
	"github.com/clodamigoles/dossiers.vevo/internal/payments"
	"github.com/clodamigoles/dossiers.vevo/internal/photos"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/auth/session"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/metrics"
	"github.com/clodamigoles/dossiers.vevo/pkg/redis"
)

// Replay windows for Idempotency-Key. Payment retries can come days later from
// a client that lost the first response.
const (
	paymentReplayTTL = 7 * 24 * time.Hour
	createReplayTTL  = 24 * time.Hour
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	checks map[string]controllers.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	salesService sales.Service,
	authService auth.Service,
	photoService photos.Service,
	paymentService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// a nil *redis.Client must reach the middleware as a nil interface
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}
	idempotentPayment := middleware.Idempotency(idempotencyStore, logg, paymentReplayTTL)
	idempotentCreate := middleware.Idempotency(idempotencyStore, logg, createReplayTTL)

	sendCodePolicy := middleware.AuthRateLimitPolicy{
		Name:       "send-code",
		Window:     cfg.AuthRateLimit.SendCodeWindow,
		IPLimit:    cfg.AuthRateLimit.SendCodeIPLimit,
		EmailLimit: cfg.AuthRateLimit.SendCodeEmailLimit,
	}
	verifyCodePolicy := middleware.AuthRateLimitPolicy{
		Name:       "verify-code",
		Window:     cfg.AuthRateLimit.VerifyCodeWindow,
		IPLimit:    cfg.AuthRateLimit.VerifyCodeIPLimit,
		EmailLimit: cfg.AuthRateLimit.VerifyCodeEmailLimit,
	}
	cookie := session.CookieOptions{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.App.IsProd(),
	}
	fees := controllers.FeeQuote{Currency: cfg.Payments.Currency}
	if amount, err := cfg.Payments.Fee(); err == nil {
		fees.Amount = amount
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/estimations/{id}", func(r chi.Router) {
		r.Get("/", controllers.EstimationView(salesService, logg))
		r.Post("/accept", controllers.EstimationAccept(salesService, logg))
		r.Post("/start-sale", controllers.EstimationStartSale(salesService, logg))
		r.Post("/decline", controllers.EstimationDecline(salesService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(rateLimit(sendCodePolicy, redisClient, logg)).Post("/send-code", controllers.AuthSendCode(authService, cfg.Session.CodeTTL, logg))
		r.With(rateLimit(verifyCodePolicy, redisClient, logg)).Post("/verify-code", controllers.AuthVerifyCode(authService, cookie, logg))
		r.Get("/session", controllers.AuthSession(authService, cfg.Session.CookieName, logg))
		r.Post("/logout", controllers.AuthLogout(cookie))
	})

	r.Route("/api/v1/dashboard/{id}", func(r chi.Router) {
		r.Use(middleware.SaleSession(authService, cfg.Session.CookieName, "id", logg))
		r.Get("/", controllers.DashboardView(salesService, fees, logg))
		r.Post("/photos", controllers.DashboardUploadPhotos(photoService, cfg.Upload.MaxBodyBytes(), logg))
		r.Post("/submit-review", controllers.DashboardSubmitReview(salesService, fees, logg))
		r.With(idempotentPayment).Post("/payment", controllers.DashboardPayment(paymentService, logg))
	})

	r.Route("/api/v1/admin/estimations", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin, enums.AdminRoleSupport))
			r.Get("/", controllers.AdminListEstimations(salesService, logg))
			r.Get("/search", controllers.AdminSearchEstimations(salesService, logg))
			r.Get("/{id}", controllers.AdminGetEstimation(salesService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin))
			r.With(idempotentCreate).Post("/", controllers.AdminCreateEstimation(salesService, logg))
			r.Post("/{id}/estimation", controllers.AdminSetEstimation(salesService, logg))
			r.Post("/{id}/photo-review", controllers.AdminReviewPhotos(salesService, logg))
			r.Post("/{id}/client-found", controllers.AdminMarkClientFound(salesService, logg))
			r.Post("/{id}/cancel", controllers.AdminCancelEstimation(salesService, logg))
		})
	})

	return r
}

func rateLimit(policy middleware.AuthRateLimitPolicy, store *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil {
		return middleware.AuthRateLimit(policy, nil, logg)
	}
	return middleware.AuthRateLimit(policy, store, logg)
}
