// Package grocery holds the canonical store and product model shared by the
// provider adapters, along with the error kinds surfaced to callers.
package grocery

import "context"

// MaxResults bounds every location and product list returned by a provider.
const MaxResults = 5

// Provider is implemented by each retailer integration. Implementations map
// their raw responses into canonical entities and never return more than
// MaxResults records per call.
type Provider interface {
	// Name is the short provider identifier used in routes and cache keys.
	Name() string

	// Locations finds the stores nearest to the given coordinates.
	Locations(ctx context.Context, coords Coordinates) ([]StoreLocation, error)

	// Products searches for the item term at a single store location.
	Products(ctx context.Context, locationID string, term string) ([]Product, error)
}

// ChainWideSearcher is implemented by providers whose product search covers
// every store of the chain. Their results do not depend on the location id.
type ChainWideSearcher interface {
	ChainWideSearch() bool
}

// SearchLocation returns the location id a product search is issued and
// cached under. Chain-wide providers share one search across all locations,
// keyed by the provider name.
func SearchLocation(p Provider, locationID string) string {
	if cw, ok := p.(ChainWideSearcher); ok && cw.ChainWideSearch() {
		return p.Name()
	}
	return locationID
}

type StoreLocation struct {
	LocationID string  `json:"locationId" yaml:"locationId"`
	Chain      string  `json:"chain" yaml:"chain"`
	Name       string  `json:"name" yaml:"name"`
	Phone      string  `json:"phone" yaml:"phone"`
	Address    Address `json:"address" yaml:"address"`
	Geo        Geo     `json:"geo" yaml:"geo"`
}

type Address struct {
	Line1  string `json:"line1" yaml:"line1"`
	City   string `json:"city" yaml:"city"`
	State  string `json:"state" yaml:"state"`
	Zip    string `json:"zip" yaml:"zip"`
	County string `json:"county" yaml:"county"`
}

type Geo struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

type Product struct {
	ProductID   string  `json:"productId" yaml:"productId"`
	UPC         string  `json:"upc" yaml:"upc"`
	Brand       string  `json:"brand" yaml:"brand"`
	Description string  `json:"description" yaml:"description"`
	ImageURL    string  `json:"imageUrl" yaml:"imageUrl"`
	Price       float64 `json:"price" yaml:"price"`
	Size        string  `json:"size" yaml:"size"`
	SoldBy      string  `json:"soldBy" yaml:"soldBy"`
}

// Truncate returns at most MaxResults leading elements of s, never nil.
func Truncate[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	if len(s) > MaxResults {
		return s[:MaxResults]
	}
	return s
}
