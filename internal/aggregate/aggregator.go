// Package aggregate resolves store and product lookups against the
// configured providers, fanning multi-location product searches out
// concurrently.
package aggregate

import (
	"context"
	"slices"
	"strings"

	"github.com/chinmina/grocery-bridge/internal/audit"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// LocationProducts is the outcome of a product search at one location. Err
// is set when that location failed; Products is then empty.
type LocationProducts struct {
	Products []grocery.Product
	Err      error
}

type Aggregator struct {
	providers      map[string]grocery.Provider
	maxConcurrency int
}

// New creates an Aggregator over the given providers, keyed by their Name.
// maxConcurrency bounds the in-flight upstream calls of a single product
// search; zero or less means unbounded.
func New(maxConcurrency int, providers ...grocery.Provider) *Aggregator {
	byName := make(map[string]grocery.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Aggregator{
		providers:      byName,
		maxConcurrency: maxConcurrency,
	}
}

// Stores lists the names of the configured providers in sorted order.
func (a *Aggregator) Stores() []string {
	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (a *Aggregator) provider(store string) (grocery.Provider, error) {
	p, ok := a.providers[store]
	if !ok {
		return nil, grocery.UnknownProviderError{Name: store}
	}
	return p, nil
}

// Locations returns the stores of the named provider nearest to coords.
func (a *Aggregator) Locations(ctx context.Context, store string, coords grocery.Coordinates) ([]grocery.StoreLocation, error) {
	entry := audit.Log(ctx)
	entry.Store = store
	entry.Operation = "locations"
	entry.Coordinates = coords.String()

	p, err := a.provider(store)
	if err != nil {
		return nil, err
	}

	if err := coords.Validate(); err != nil {
		return nil, err
	}

	locations, err := p.Locations(ctx, coords)
	if err != nil {
		return nil, err
	}

	locations = grocery.Truncate(locations)
	entry.Results = len(locations)

	return locations, nil
}

// Products searches for term at every location in locationIDs. Each distinct
// location receives its own result slot; a failing location records its
// error in that slot and does not affect the others. Providers with a
// chain-wide search are called once, and every slot shares that outcome.
// The returned error is only set when the request itself is invalid.
func (a *Aggregator) Products(ctx context.Context, store string, locationIDs []string, term string) (map[string]LocationProducts, error) {
	ids := distinct(locationIDs)

	entry := audit.Log(ctx)
	entry.Store = store
	entry.Operation = "products"
	entry.Term = term
	entry.Locations = ids

	p, err := a.provider(store)
	if err != nil {
		return nil, err
	}

	if err := grocery.ValidateTerm(term); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, grocery.ValidationError{Field: "locationIds", Reason: "at least one location id is required"}
	}

	// slot indexes served by each upstream search
	searches := make(map[string][]int, len(ids))
	order := make([]string, 0, len(ids))
	for i, id := range ids {
		loc := grocery.SearchLocation(p, id)
		if _, ok := searches[loc]; !ok {
			order = append(order, loc)
		}
		searches[loc] = append(searches[loc], i)
	}

	outcomes := make([]LocationProducts, len(order))

	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}

	for j, loc := range order {
		g.Go(func() error {
			products, err := p.Products(ctx, loc, term)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).
					Str("store", store).
					Str("location", loc).
					Msg("product search failed for location")

				outcomes[j] = LocationProducts{Products: []grocery.Product{}, Err: err}
				return nil
			}

			outcomes[j] = LocationProducts{Products: grocery.Truncate(products)}
			return nil
		})
	}

	// outcomes carry per-location errors, the group never fails
	_ = g.Wait()

	slots := make([]LocationProducts, len(ids))
	for j, loc := range order {
		for _, i := range searches[loc] {
			slots[i] = outcomes[j]
		}
	}

	results := make(map[string]LocationProducts, len(ids))
	total := 0
	for i, id := range ids {
		results[id] = slots[i]
		total += len(slots[i].Products)
		if slots[i].Err != nil {
			entry.FailedLocations = append(entry.FailedLocations, id)
		}
	}
	entry.Results = total

	return results, nil
}

// distinct trims the ids, dropping blanks and repeats while keeping first
// occurrence order.
func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
