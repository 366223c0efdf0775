package room

import "github.com/havensuites/concierge/internal/domain"

// Recommend picks a room for the given guest count and budget.
//
// Among rooms that seat everyone and cost no more than the budget, the one
// with the fewest spare beds wins. When nothing is both large enough and
// affordable, capacity is ignored and the room priced closest to the budget
// wins. Ties go to the room listed first.
func (c *Catalog) Recommend(guests, budget int) domain.Room {
	best := -1
	bestSlack := 0
	for i, r := range c.rooms {
		if r.Capacity < guests || r.Price > budget {
			continue
		}
		slack := r.Capacity - guests
		if best < 0 || slack < bestSlack {
			best, bestSlack = i, slack
		}
	}
	if best >= 0 {
		return c.rooms[best]
	}

	best = 0
	bestDiff := absDiff(c.rooms[0].Price, budget)
	for i := 1; i < len(c.rooms); i++ {
		if d := absDiff(c.rooms[i].Price, budget); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return c.rooms[best]
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
