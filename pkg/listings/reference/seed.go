package reference

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/tendant/portal-content/pkg/listings"
)

//go:embed seed/*.json
var seedFiles embed.FS

// Seed is the sample listings written into an empty store
type Seed struct {
	Exams           []listings.Exam
	Results         []listings.Result
	Institutions    []listings.Institution
	Holidays        []listings.Holiday
	Restaurants     []listings.Restaurant
	FashionStores   []listings.FashionStore
	ShoppingCentres []listings.ShoppingCentre
	FamousPlaces    []listings.FamousPlace
	Events          []listings.Event
}

// DefaultSeed decodes the bundled sample listings
func DefaultSeed() (*Seed, error) {
	var s Seed
	files := []struct {
		name string
		dst  interface{}
	}{
		{"seed/exams.json", &s.Exams},
		{"seed/results.json", &s.Results},
		{"seed/institutions.json", &s.Institutions},
		{"seed/holidays.json", &s.Holidays},
		{"seed/restaurants.json", &s.Restaurants},
		{"seed/fashion_stores.json", &s.FashionStores},
		{"seed/shopping_centres.json", &s.ShoppingCentres},
		{"seed/famous_places.json", &s.FamousPlaces},
		{"seed/events.json", &s.Events},
	}
	for _, f := range files {
		data, err := seedFiles.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return &s, nil
}
