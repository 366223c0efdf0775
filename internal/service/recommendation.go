// Package service holds the application services that sit between the HTTP
// handlers and the domain: room selection plus rating prediction.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/infra/observability"
	"github.com/havensuites/concierge/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/recommendation")

// DefaultRatingTimeout bounds a predictor call when none is configured.
const DefaultRatingTimeout = 3 * time.Second

// RecommendationService picks a room and asks the predictor how much the
// guest will like it.
type RecommendationService struct {
	rooms     port.RoomRecommender
	predictor port.RatingPredictor
	ratings   port.Cache[float64]
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRecommendationService creates the service with all dependencies injected.
// ratings caches predictions by feature vector and may be nil.
// A non-positive timeout means DefaultRatingTimeout.
func NewRecommendationService(
	rooms port.RoomRecommender,
	predictor port.RatingPredictor,
	ratings port.Cache[float64],
	timeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RecommendationService {
	if timeout <= 0 {
		timeout = DefaultRatingTimeout
	}
	return &RecommendationService{
		rooms:     rooms,
		predictor: predictor,
		ratings:   ratings,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// Recommend selects a room for req and predicts its rating. A zero Nights
// means one night. Chat turns may carry zero guests or budget, so only the
// HTTP surface runs ValidateRequest first.
//
// Predictor failures come back typed: *domain.ErrTimeout when the call
// outlived its deadline, *domain.ErrCircuitOpen and
// *domain.ErrExternalService as the predictor reported them, and
// *domain.ErrExternalService wrapping anything else.
func (s *RecommendationService) Recommend(ctx context.Context, req *domain.RecommendationRequest) (*domain.Recommendation, error) {
	ctx, span := tracer.Start(ctx, "RecommendationService.Recommend")
	defer span.End()

	if req == nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "is required"}
	}
	nights := req.Nights
	if nights <= 0 {
		nights = 1
	}
	span.SetAttributes(
		attribute.Int("booking.guests", req.Guests),
		attribute.Int("booking.nights", nights),
		attribute.Int("booking.budget", req.Price),
	)

	room := s.rooms.Recommend(req.Guests, req.Price)

	rating, err := s.predict(ctx, domain.RatingFeatures{
		Guests:   req.Guests,
		Nights:   nights,
		RoomType: room.Type,
		Price:    room.Price,
	})
	if err != nil {
		return nil, err
	}
	rating = math.Round(rating*100) / 100

	return &domain.Recommendation{
		Room:            room.Name,
		PredictedRating: rating,
		Message:         FormatRecommendation(room, req.Guests, req.Price, rating),
	}, nil
}

// predict calls the predictor under the configured deadline. The model is a
// pure function of the features, so successful answers are cached.
func (s *RecommendationService) predict(ctx context.Context, f domain.RatingFeatures) (float64, error) {
	cacheKey := fmt.Sprintf("rating:%d:%d:%d:%d", f.Guests, f.Nights, f.RoomType, f.Price)
	if s.ratings != nil {
		if r, ok := s.ratings.Get(cacheKey); ok {
			s.metrics.IncrCacheHit("rating")
			return r, nil
		}
		s.metrics.IncrCacheMiss("rating")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rating, err := s.predictor.Predict(ctx, f)
	s.metrics.RecordRequestDuration("rating", time.Since(start))
	if err == nil {
		if s.ratings != nil {
			s.ratings.Set(cacheKey, rating)
		}
		return rating, nil
	}

	s.metrics.IncrExternalError("rating")
	s.logger.Warn("rating prediction failed",
		zap.Int("room_type", f.RoomType),
		zap.Duration("timeout", s.timeout),
		zap.Error(err),
	)

	var (
		open *domain.ErrCircuitOpen
		tout *domain.ErrTimeout
		ext  *domain.ErrExternalService
	)
	switch {
	case errors.As(err, &open), errors.As(err, &tout):
		return 0, err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return 0, &domain.ErrTimeout{Operation: "rating prediction"}
	case errors.As(err, &ext):
		return 0, err
	default:
		return 0, &domain.ErrExternalService{Service: "rating", Err: err}
	}
}

// ValidateRequest rejects non-positive guests or budget and negative nights.
func ValidateRequest(req *domain.RecommendationRequest) error {
	if req == nil {
		return &domain.ErrValidation{Field: "body", Message: "is required"}
	}
	if req.Guests <= 0 {
		return &domain.ErrValidation{Field: "guests", Message: "must be positive"}
	}
	if req.Nights < 0 {
		return &domain.ErrValidation{Field: "nights", Message: "must not be negative"}
	}
	if req.Price <= 0 {
		return &domain.ErrValidation{Field: "price", Message: "must be positive"}
	}
	return nil
}

// FormatRecommendation renders the chat message for a recommended room.
// rating is printed with two decimals.
func FormatRecommendation(room domain.Room, guests, budget int, rating float64) string {
	return fmt.Sprintf(
		"I recommend the %s.\n\n"+
			"Reason:\n"+
			"• Good for %d guest(s)\n"+
			"• Fits your budget of ₱%d\n"+
			"• Estimated nightly price: ₱%d\n\n"+
			"Predicted guest satisfaction: %.2f ⭐",
		room.Name, guests, budget, room.Price, rating,
	)
}
