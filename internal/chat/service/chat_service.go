// Package service implements the ChatService, the dialogue manager of the
// booking chat.
//
// ============================================================
// ONE TURN
// ============================================================
//
// Every message runs the same fixed pipeline against the caller's session
// state, and the first stage that produces a reply ends the turn:
//
//  1. Slot extraction   "3 guests"        → "Got it, 3 guest(s)."
//  2. Recommendation    guests + budget   → room, rating, slots cleared
//  3. Small talk        intents corpus    → canned reply
//  4. Fallback                            → ask for guests and budget
//
// A recommendation needs the rating predictor. If that call fails or
// times out the turn still succeeds with an apology, and the slots are
// cleared anyway.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/havensuites/concierge/internal/chat/domain"
	"github.com/havensuites/concierge/internal/chat/port"
	maindomain "github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// chatTracer is the OpenTelemetry tracer for the chat module.
var chatTracer = otel.Tracer("chat/service")

const (
	// FallbackReply is sent when nothing else in the pipeline answered.
	FallbackReply = "You can tell me your number of guests and budget so I can recommend a room."

	// UnavailableReply is sent when the rating predictor cannot be reached.
	UnavailableReply = "I cannot access the recommendation system right now."
)

// ChatService orchestrates one chat turn over a per-session state.
type ChatService struct {
	sessions    port.SessionStore
	recommender port.Recommender
	matcher     *IntentMatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewChatService creates the ChatService with its dependencies injected.
func NewChatService(
	sessions port.SessionStore,
	recommender port.Recommender,
	matcher *IntentMatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		sessions:    sessions,
		recommender: recommender,
		matcher:     matcher,
		metrics:     metrics,
		logger:      logger,
	}
}

// ProcessMessage runs one turn for sessionID and returns the reply.
// Errors come only from the session store; collaborator failures are
// turned into chat replies.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, message string) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	start := time.Now()

	var reply, outcome, slot string
	err := s.sessions.Update(ctx, sessionID, func(state *domain.ConversationState) error {
		// fn may run more than once on a store conflict; last run wins.
		reply, outcome, slot = s.turn(ctx, sessionID, message, state)
		return nil
	})
	if err != nil {
		s.logger.Error("session update failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("process message: %w", err)
	}

	s.metrics.RecordRequestDuration("turn", time.Since(start))
	s.metrics.IncrTurn(outcome)
	if slot != "" {
		s.metrics.IncrSlot(slot)
	}
	span.SetAttributes(attribute.String("chat.outcome", outcome))

	s.logger.Info("chat turn",
		zap.String("session_id", sessionID),
		zap.String("outcome", outcome),
		zap.Int("message_length", len(message)),
	)

	return &domain.ChatResponse{Reply: DeduplicateWords(reply)}, nil
}

// turn is the pipeline itself. It mutates state in place.
// It returns the reply, the outcome label, and the slot filled (if any).
func (s *ChatService) turn(ctx context.Context, sessionID, message string, state *domain.ConversationState) (string, string, string) {
	// 1. Slot extraction
	if filled, ack, ok := ExtractSlot(message, state); ok {
		return ack, observability.OutcomeSlotAck, filled
	}

	// 2. Recommendation once the required slots are in
	if state.Ready() {
		req := &maindomain.RecommendationRequest{
			Guests: *state.Guests,
			Nights: state.NightsOrDefault(),
			Price:  *state.Budget,
		}
		state.ResetSlots()

		rec, err := s.recommender.Recommend(ctx, req)
		if err != nil {
			s.logger.Warn("recommendation unavailable",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return UnavailableReply, observability.OutcomePredictorUnavailable, ""
		}
		return rec.Message, observability.OutcomeRecommendation, ""
	}

	// 3. Small talk
	if canned, ok := s.matcher.Match(message, state); ok {
		return canned, observability.OutcomeCanned, ""
	}

	// 4. Fallback
	return FallbackReply, observability.OutcomeFallback, ""
}

// Session returns the slots collected so far for sessionID.
func (s *ChatService) Session(ctx context.Context, sessionID string) (*domain.SessionView, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Session")
	defer span.End()

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &domain.SessionView{
		Guests: state.Guests,
		Nights: state.Nights,
		Budget: state.Budget,
		Ready:  state.Ready(),
	}, nil
}

// EndSession drops all state for sessionID.
func (s *ChatService) EndSession(ctx context.Context, sessionID string) error {
	ctx, span := chatTracer.Start(ctx, "ChatService.EndSession")
	defer span.End()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.logger.Debug("session ended", zap.String("session_id", sessionID))
	return nil
}
