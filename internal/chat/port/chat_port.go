// Package port defines the interfaces the chat service depends on.
package port

import (
	"context"

	chatdomain "github.com/havensuites/concierge/internal/chat/domain"
	"github.com/havensuites/concierge/internal/domain"
)

// SessionStore keeps one ConversationState per session id.
//
// Update gives fn exclusive access to the session's state for the length
// of the call and persists whatever fn leaves behind. A session that does
// not exist yet starts from the zero state. Exclusivity is per session:
// turns on different sessions never wait on each other.
type SessionStore interface {
	Update(ctx context.Context, sessionID string, fn func(*chatdomain.ConversationState) error) error
	Get(ctx context.Context, sessionID string) (*chatdomain.ConversationState, error)
	Delete(ctx context.Context, sessionID string) error
}

// Recommender turns a filled booking request into a recommendation:
// room selection, rating prediction, and the formatted message.
type Recommender interface {
	Recommend(ctx context.Context, req *domain.RecommendationRequest) (*domain.Recommendation, error)
}
