package service

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/havensuites/concierge/internal/chat/domain"
)

// IntentMatcher answers small talk from the intents corpus.
// The corpus is read-only; the random source is the only shared mutable
// part and is guarded by mu.
type IntentMatcher struct {
	corpus *domain.Corpus

	mu  sync.Mutex
	rng *rand.Rand
}

// NewIntentMatcher creates a matcher over corpus. Pass a fixed seed in
// tests for reproducible replies.
func NewIntentMatcher(corpus *domain.Corpus, seed int64) *IntentMatcher {
	return &IntentMatcher{
		corpus: corpus,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Match finds the first intent (corpus order, then pattern order) with a
// pattern contained in message and returns one of its replies, avoiding
// state.LastReply when the intent offers an alternative. On a match
// state.LastReply is set to the raw reply; the returned text is
// de-duplicated. Without a match state is untouched.
func (m *IntentMatcher) Match(message string, state *domain.ConversationState) (string, bool) {
	intent := m.find(strings.ToLower(message))
	if intent == nil {
		return "", false
	}

	last := ""
	if state.LastReply != nil {
		last = *state.LastReply
	}

	m.mu.Lock()
	reply := selectReply(m.rng, intent.Responses, last)
	m.mu.Unlock()

	state.LastReply = &reply
	return DeduplicateWords(reply), true
}

func (m *IntentMatcher) find(lower string) *domain.Intent {
	for i := range m.corpus.Intents {
		intent := &m.corpus.Intents[i]
		if len(intent.Responses) == 0 {
			continue
		}
		for _, p := range intent.Patterns {
			if p != "" && strings.Contains(lower, p) {
				return intent
			}
		}
	}
	return nil
}

// selectReply picks uniformly from responses. If there is more than one
// response and last is among them, last is excluded from the draw.
// responses must not be empty.
func selectReply(rng *rand.Rand, responses []string, last string) string {
	if len(responses) > 1 && contains(responses, last) {
		choices := make([]string, 0, len(responses)-1)
		for _, r := range responses {
			if r != last {
				choices = append(choices, r)
			}
		}
		if len(choices) > 0 {
			return choices[rng.Intn(len(choices))]
		}
	}
	return responses[rng.Intn(len(responses))]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DeduplicateWords collapses consecutive repeated words, compared
// case-insensitively, keeping the first spelling: "The the room" becomes
// "The room". Words are whitespace separated and rejoined with single
// spaces; line breaks are preserved and words are not compared across them.
func DeduplicateWords(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		out := words[:0]
		for _, w := range words {
			if len(out) > 0 && strings.EqualFold(w, out[len(out)-1]) {
				continue
			}
			out = append(out, w)
		}
		lines[i] = strings.Join(out, " ")
	}
	return strings.Join(lines, "\n")
}
