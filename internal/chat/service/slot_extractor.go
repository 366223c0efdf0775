package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/havensuites/concierge/internal/chat/domain"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// slotRule ties a slot to its trigger keywords and acknowledgement.
type slotRule struct {
	slot     string
	keywords []string
	ack      string // fmt template, %d is the parsed value
	assign   func(s *domain.ConversationState, v int)
}

// slotRules are checked in order; the first rule that applies wins, so a
// message like "3 guests, budget 2000" only fills guests.
var slotRules = []slotRule{
	{
		slot:     domain.SlotGuests,
		keywords: []string{"guest", "people", "person"},
		ack:      "Got it, %d guest(s).",
		assign:   func(s *domain.ConversationState, v int) { s.Guests = &v },
	},
	{
		slot:     domain.SlotNights,
		keywords: []string{"night"},
		ack:      "Okay, staying for %d night(s).",
		assign:   func(s *domain.ConversationState, v int) { s.Nights = &v },
	},
	{
		slot:     domain.SlotBudget,
		keywords: []string{"budget", "peso", "₱"},
		ack:      "Thanks! Budget noted: ₱%d.",
		assign:   func(s *domain.ConversationState, v int) { s.Budget = &v },
	},
}

// ExtractSlot looks for one booking slot in message and writes it into
// state. The value is always the first number in the message, whichever
// keyword matched. It returns the slot name and an acknowledgement, or
// ok=false when nothing was extracted (no number, no keyword, or a number
// that does not fit in an int); state is untouched in that case.
func ExtractSlot(message string, state *domain.ConversationState) (slot, ack string, ok bool) {
	lower := strings.ToLower(message)

	num := digitRun.FindString(lower)
	if num == "" {
		return "", "", false
	}

	for _, rule := range slotRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		v, err := strconv.Atoi(num)
		if err != nil {
			return "", "", false
		}
		rule.assign(state, v)
		return rule.slot, fmt.Sprintf(rule.ack, v), true
	}
	return "", "", false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
