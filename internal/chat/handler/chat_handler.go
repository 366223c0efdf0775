// Package handler implements the chat routes:
//
//	POST   /v1/chat          one dialogue turn
//	GET    /v1/chat/session  slots collected so far
//	DELETE /v1/chat/session  forget the session
//
// All three run behind the session middleware, which puts the session id
// in the request context. The handlers stay thin: decode, delegate to
// ChatService, encode.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/havensuites/concierge/internal/chat/domain"
	"github.com/havensuites/concierge/internal/chat/service"
	maindomain "github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer is the OpenTelemetry tracer for the chat/handler module.
var tracer = otel.Tracer("chat/handler")

// ChatHandler returns the handler for POST /v1/chat.
//
// Request:
//
//	{"message": "3 guests"}
//
// Response (200 OK):
//
//	{"reply": "Got it, 3 guest(s).", "session_token": "eyJ..."}
//
// session_token is only present on the first turn of a new session.
// An empty message is a valid turn; a missing one is a 400.
func ChatHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		sessionID := session.IDFromContext(ctx)
		if sessionID == "" {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, `invalid request body: expected {"message": "..."}`)
			return
		}
		if req.Message == nil {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		span.SetAttributes(attribute.Int("chat.message_length", len(*req.Message)))

		resp, err := chatSvc.ProcessMessage(ctx, sessionID, *req.Message)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resp.SessionToken = session.NewTokenFromContext(ctx)

		writeJSON(w, http.StatusOK, resp)
	}
}

// SessionHandler returns the handler for GET /v1/chat/session.
func SessionHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/session")
		defer span.End()

		view, err := chatSvc.Session(ctx, session.IDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// EndSessionHandler returns the handler for DELETE /v1/chat/session.
func EndSessionHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/chat/session")
		defer span.End()

		if err := chatSvc.EndSession(ctx, session.IDFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError maps chat errors to HTTP status codes. Predictor
// failures never get here; the chat service turns them into replies.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *maindomain.ErrValidation
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionContention):
		logger.Warn("session contention", zap.Error(err))
		writeError(w, http.StatusConflict, "session is busy, try again")
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
