// Package room holds the room catalog and the deterministic rule that picks
// a room for a guest count and a budget.
package room

import (
	"fmt"
	"os"

	"github.com/havensuites/concierge/internal/domain"

	"gopkg.in/yaml.v3"
)

// Catalog is a fixed, ordered list of rooms. Order matters: it breaks ties
// in Recommend. A Catalog is never mutated after construction.
type Catalog struct {
	rooms []domain.Room
}

// catalogFile is the on-disk shape of a catalog:
//
//	rooms:
//	  - {name: Standard Room, type: 0, capacity: 2, price: 1500}
type catalogFile struct {
	Rooms []domain.Room `yaml:"rooms"`
}

// NewCatalog validates rooms and returns a catalog over a private copy.
func NewCatalog(rooms []domain.Room) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: "no rooms"}
	}

	seen := make(map[string]struct{}, len(rooms))
	for i, r := range rooms {
		if r.Name == "" {
			return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: fmt.Sprintf("room %d has no name", i)}
		}
		if _, dup := seen[r.Name]; dup {
			return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: "duplicate room " + r.Name}
		}
		seen[r.Name] = struct{}{}

		if r.Capacity <= 0 {
			return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: r.Name + ": capacity must be positive"}
		}
		if r.Price <= 0 {
			return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: r.Name + ": price must be positive"}
		}
	}

	cp := make([]domain.Room, len(rooms))
	copy(cp, rooms)
	return &Catalog{rooms: cp}, nil
}

// DefaultCatalog returns the three rooms the hotel ships with.
func DefaultCatalog() *Catalog {
	return &Catalog{rooms: []domain.Room{
		{Name: "Standard Room", Type: 0, Capacity: 2, Price: 1500},
		{Name: "Deluxe Room", Type: 1, Capacity: 3, Price: 2800},
		{Name: "Family Room", Type: 2, Capacity: 5, Price: 4500},
	}}
}

// LoadCatalog reads a YAML catalog file. An empty path yields the default
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: err.Error()}
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &domain.ErrMisconfigured{Resource: "catalog", Reason: "parse " + path + ": " + err.Error()}
	}
	return NewCatalog(f.Rooms)
}

// Rooms returns a copy of the catalog in order.
func (c *Catalog) Rooms() []domain.Room {
	cp := make([]domain.Room, len(c.rooms))
	copy(cp, c.rooms)
	return cp
}

// Len returns the number of rooms.
func (c *Catalog) Len() int {
	return len(c.rooms)
}
