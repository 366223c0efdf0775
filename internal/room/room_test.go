package room_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/room"
)

func TestRecommend_FitsCapacityAndBudget(t *testing.T) {
	c := room.DefaultCatalog()

	got := c.Recommend(2, 2500)
	if got.Name != "Standard Room" {
		t.Errorf("expected 'Standard Room', got '%s'", got.Name)
	}
}

func TestRecommend_NothingFitsPicksClosestPrice(t *testing.T) {
	c := room.DefaultCatalog()

	got := c.Recommend(4, 1000)
	if got.Name != "Standard Room" {
		t.Errorf("expected 'Standard Room', got '%s'", got.Name)
	}
}

func TestRecommend_TightestCapacityWins(t *testing.T) {
	c := room.DefaultCatalog()

	// Deluxe and Family both fit; Deluxe has no spare bed.
	got := c.Recommend(3, 5000)
	if got.Name != "Deluxe Room" {
		t.Errorf("expected 'Deluxe Room', got '%s'", got.Name)
	}
}

func TestRecommend_TiesGoToCatalogOrder(t *testing.T) {
	c, err := room.NewCatalog([]domain.Room{
		{Name: "A", Type: 0, Capacity: 4, Price: 2000},
		{Name: "B", Type: 1, Capacity: 4, Price: 1000},
		{Name: "C", Type: 2, Capacity: 1, Price: 3000},
		{Name: "D", Type: 3, Capacity: 1, Price: 5000},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := c.Recommend(3, 2500); got.Name != "A" {
		t.Errorf("capacity tie: expected 'A', got '%s'", got.Name)
	}
	// Nothing seats 9. C and D are both 1000 away from 4000; C is listed first.
	if got := c.Recommend(9, 4000); got.Name != "C" {
		t.Errorf("price tie: expected 'C', got '%s'", got.Name)
	}
}

func TestRecommend_ReturnsCatalogRoomSatisfyingConstraints(t *testing.T) {
	c := room.DefaultCatalog()
	rooms := c.Rooms()

	for guests := 0; guests <= 7; guests++ {
		for budget := 0; budget <= 6000; budget += 250 {
			got := c.Recommend(guests, budget)

			found := false
			anyFits := false
			for _, r := range rooms {
				if r == got {
					found = true
				}
				if r.Capacity >= guests && r.Price <= budget {
					anyFits = true
				}
			}
			if !found {
				t.Fatalf("Recommend(%d, %d) returned %+v, not in catalog", guests, budget, got)
			}
			if anyFits && (got.Capacity < guests || got.Price > budget) {
				t.Fatalf("Recommend(%d, %d) returned %+v, which does not fit although a room does", guests, budget, got)
			}
		}
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	cases := map[string][]domain.Room{
		"empty":     nil,
		"duplicate": {{Name: "X", Capacity: 1, Price: 1}, {Name: "X", Capacity: 2, Price: 2}},
		"capacity":  {{Name: "X", Capacity: 0, Price: 1}},
		"price":     {{Name: "X", Capacity: 1, Price: 0}},
		"noname":    {{Capacity: 1, Price: 1}},
	}

	for name, rooms := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := room.NewCatalog(rooms)
			var mis *domain.ErrMisconfigured
			if !errors.As(err, &mis) {
				t.Fatalf("expected ErrMisconfigured, got %v", err)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.yaml")
	body := `rooms:
  - {name: Single, type: 0, capacity: 1, price: 900}
  - {name: Twin, type: 1, capacity: 2, price: 1400}
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := room.LoadCatalog(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 rooms, got %d", c.Len())
	}
	if got := c.Recommend(2, 1500); got.Name != "Twin" {
		t.Errorf("expected 'Twin', got '%s'", got.Name)
	}
}

func TestLoadCatalog_EmptyPathUsesDefault(t *testing.T) {
	c, err := room.LoadCatalog("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 default rooms, got %d", c.Len())
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := room.LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	var mis *domain.ErrMisconfigured
	if !errors.As(err, &mis) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestLoadCatalog_ShippedAssetMatchesDefault(t *testing.T) {
	c, err := room.LoadCatalog("../../assets/rooms.yaml")
	if err != nil {
		t.Fatalf("expected shipped catalog to load, got %v", err)
	}
	got, want := c.Rooms(), room.DefaultCatalog().Rooms()
	if len(got) != len(want) {
		t.Fatalf("expected %d rooms, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("room %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
