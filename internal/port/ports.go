// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/havensuites/concierge/internal/domain"
)

// RatingPredictor estimates guest satisfaction for a booking.
// Implementations must return promptly once ctx is done; callers bound
// every call with a deadline.
type RatingPredictor interface {
	Predict(ctx context.Context, f domain.RatingFeatures) (float64, error)
}

// RoomRecommender picks a room for a guest count and budget.
type RoomRecommender interface {
	Recommend(guests, budget int) domain.Room
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
