package handler

import (
	"context"
	"net/http"
	"time"

	chathandler "github.com/havensuites/concierge/internal/chat/handler"
	chatservice "github.com/havensuites/concierge/internal/chat/service"
	"github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/infra/observability"
	"github.com/havensuites/concierge/internal/rating"
	"github.com/havensuites/concierge/internal/room"
	"github.com/havensuites/concierge/internal/service"
	"github.com/havensuites/concierge/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router exposes. Model and Limiter may be nil:
// without a local model /v1/rating is not served, without a limiter
// requests are not throttled.
type Deps struct {
	Chat            *chatservice.ChatService
	Recommendations *service.RecommendationService
	Catalog         *room.Catalog
	Model           *rating.Model
	Tokens          *session.TokenIssuer
	Limiter         *RateLimiter

	// Checks are probed by /healthz, keyed by the name reported.
	Checks map[string]Pinger

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Checks, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(d.Limiter, logger))

		// Chat, one session per token
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(d.Tokens, logger))
			r.Post("/chat", chathandler.ChatHandler(d.Chat, logger))
			r.Get("/chat/session", chathandler.SessionHandler(d.Chat, logger))
			r.Delete("/chat/session", chathandler.EndSessionHandler(d.Chat, logger))
		})

		// Stateless booking API
		r.Get("/rooms", roomsHandler(d.Catalog))
		r.Post("/recommendations", recommendationHandler(d.Recommendations, logger))
		if d.Model != nil {
			r.Post("/rating", ratingHandler(d.Model, logger))
		}

		r.Get("/metrics/dialogue", dialogueMetricsHandler(d.Metrics))
	})

	return r
}

// ============================================================
// Booking API
// ============================================================

func roomsHandler(catalog *room.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.Rooms())
	}
}

func recommendationHandler(svc *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recommendations")
		defer span.End()

		var req domain.RecommendationRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := service.ValidateRequest(&req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("booking.guests", req.Guests))

		rec, err := svc.Recommend(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// ratingHandler serves the local model over HTTP, so other replicas can
// point RATING_API_URL at this one.
func ratingHandler(model *rating.Model, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/rating")
		defer span.End()

		var f domain.RatingFeatures
		if err := decodeJSON(r, &f); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := validateFeatures(f); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.RatingResponse{Rating: model.Predict(f)})
	}
}

func validateFeatures(f domain.RatingFeatures) error {
	switch {
	case f.Guests <= 0:
		return &domain.ErrValidation{Field: "guests", Message: "must be positive"}
	case f.Nights < 0:
		return &domain.ErrValidation{Field: "nights", Message: "must not be negative"}
	case f.RoomType < 0:
		return &domain.ErrValidation{Field: "room_type", Message: "must not be negative"}
	case f.Price <= 0:
		return &domain.ErrValidation{Field: "price", Message: "must be positive"}
	}
	return nil
}

// ============================================================
// Metrics & Health
// ============================================================

func dialogueMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetDialogueSnapshot())
	}
}

func healthzHandler(checks map[string]Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "concierge", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		for name, p := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			err := p.Ping(ctx)
			cancel()

			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: name, Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

// ============================================================
// Probes
// ============================================================

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
