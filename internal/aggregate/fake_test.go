package aggregate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chinmina/grocery-bridge/internal/grocery"
)

// fakeProvider is an in-memory grocery.Provider recording its calls.
type fakeProvider struct {
	name      string
	locations []grocery.StoreLocation
	products  map[string][]grocery.Product
	failures  map[string]error
	delay     time.Duration
	chainWide bool

	locationCalls atomic.Int32
	productCalls  atomic.Int32
	inflight      atomic.Int32
	maxInflight   atomic.Int32

	mu    sync.Mutex
	terms []string
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) ChainWideSearch() bool {
	return f.chainWide
}

func (f *fakeProvider) Locations(_ context.Context, _ grocery.Coordinates) ([]grocery.StoreLocation, error) {
	f.locationCalls.Add(1)

	if err := f.failures["locations"]; err != nil {
		return nil, err
	}

	return f.locations, nil
}

func (f *fakeProvider) Products(_ context.Context, locationID string, term string) ([]grocery.Product, error) {
	f.productCalls.Add(1)

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.maxInflight.Load()
		if n <= peak || f.maxInflight.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err := f.failures[locationID]; err != nil {
		return nil, err
	}

	return f.products[locationID], nil
}

func products(n int, prefix string) []grocery.Product {
	out := make([]grocery.Product, 0, n)
	for i := range n {
		out = append(out, grocery.Product{
			ProductID:   prefix + string(rune('a'+i)),
			Description: "item " + prefix,
			Price:       float64(i) + 0.99,
		})
	}
	return out
}
