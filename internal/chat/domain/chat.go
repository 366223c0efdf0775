// Package domain holds the types of the booking chat: the request and reply
// of one turn, the per-session slot state, and the intents corpus used for
// small talk.
//
// A conversation collects three slots from free text:
//
//	guests  "we are 3 guests"       required
//	nights  "staying 2 nights"      optional, defaults to 1
//	budget  "budget is 3000 pesos"  required
//
// Once guests and budget are both known the next turn produces a room
// recommendation and the slots are cleared.
package domain

// ============================================================
// Chat: request and response of POST /v1/chat
// ============================================================

// ChatRequest is the body of POST /v1/chat.
// Message is a pointer so a missing field can be told apart from "".
type ChatRequest struct {
	Message *string `json:"message"`
}

// ChatResponse is what the concierge returns for one turn.
// SessionToken is only set on the turn that opened a new session.
type ChatResponse struct {
	Reply        string `json:"reply"`
	SessionToken string `json:"session_token,omitempty"`
}

// ============================================================
// Conversation state
// ============================================================

// Slot names, also used as metric labels.
const (
	SlotGuests = "guests"
	SlotNights = "nights"
	SlotBudget = "budget"
)

// ConversationState is the mutable state of one session.
// A nil slot is absent. LastReply is owned by the intent matcher and
// survives slot resets.
type ConversationState struct {
	Guests    *int    `json:"guests,omitempty"`
	Nights    *int    `json:"nights,omitempty"`
	Budget    *int    `json:"budget,omitempty"`
	LastReply *string `json:"last_reply,omitempty"`
}

// Ready reports whether the required slots (guests, budget) are present.
func (s *ConversationState) Ready() bool {
	return s.Guests != nil && s.Budget != nil
}

// ResetSlots clears guests, nights and budget. LastReply is kept.
func (s *ConversationState) ResetSlots() {
	s.Guests = nil
	s.Nights = nil
	s.Budget = nil
}

// NightsOrDefault returns the nights slot, or 1 when it is absent.
func (s *ConversationState) NightsOrDefault() int {
	if s.Nights == nil {
		return 1
	}
	return *s.Nights
}

// SessionView is returned by GET /v1/chat/session.
type SessionView struct {
	Guests *int `json:"guests,omitempty"`
	Nights *int `json:"nights,omitempty"`
	Budget *int `json:"budget,omitempty"`
	Ready  bool `json:"ready"`
}

// ============================================================
// Intents corpus
// ============================================================

// Intent groups trigger patterns with candidate replies.
type Intent struct {
	Tag       string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Responses []string `json:"responses" yaml:"responses"`
}

// Corpus is the read-only intents document, in match order.
type Corpus struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}
