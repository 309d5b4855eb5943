// This command runs a single lookup against the configured providers using
// the same environment configuration as the server, and prints the result.
// It is used to check provider credentials and mappings locally.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/chinmina/grocery-bridge/internal/aggregate"
	"github.com/chinmina/grocery-bridge/internal/bridge"
	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/server"
	"github.com/chinmina/grocery-bridge/internal/walmart"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store       string   `env:"UTIL_STORE, required"`
	LatLong     string   `env:"UTIL_LATLONG"`
	Item        string   `env:"UTIL_ITEM"`
	LocationIDs []string `env:"UTIL_LOCATION_IDS"`
	Format      string   `env:"UTIL_FORMAT, default=json"`
}

type lookup interface {
	Locations(ctx context.Context, store string, coords grocery.Coordinates) ([]grocery.StoreLocation, error)
	Products(ctx context.Context, store string, locationIDs []string, term string) (map[string]aggregate.LocationProducts, error)
}

// locationResult mirrors the server response, but reports the full error.
type locationResult struct {
	Products []grocery.Product `json:"products" yaml:"products"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	zerolog.DefaultContextLogger = &log.Logger

	ctx := context.Background()

	util := Config{}
	err := envconfig.Process(ctx, &util)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading provider config: %v\n", err)
		os.Exit(1)
	}

	hooks := &server.ShutdownHooks{}
	defer hooks.Execute(ctx)

	agg, err := bridge.New(ctx, cfg, http.DefaultClient, hooks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring providers: %v\n", err)
		hooks.Execute(ctx)
		os.Exit(1)
	}

	err = run(ctx, util, agg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		hooks.Execute(ctx)
		os.Exit(1)
	}
}

// run performs a product search when an item is configured, and a location
// lookup otherwise.
func run(ctx context.Context, util Config, l lookup, out io.Writer) error {
	var result any

	if util.Item != "" {
		ids := util.LocationIDs
		if util.Store == walmart.Name && len(ids) == 0 {
			ids = []string{walmart.Name}
		}

		products, err := l.Products(ctx, util.Store, ids, util.Item)
		if err != nil {
			return err
		}

		byLocation := make(map[string]locationResult, len(products))
		for id, p := range products {
			r := locationResult{Products: p.Products}
			if p.Err != nil {
				r.Error = p.Err.Error()
			}
			byLocation[id] = r
		}
		result = byLocation
	} else {
		if util.LatLong == "" {
			return errors.New("UTIL_LATLONG is required for a location lookup")
		}

		coords, err := grocery.ParseCoordinates(util.LatLong)
		if err != nil {
			return err
		}

		locations, err := l.Locations(ctx, util.Store, coords)
		if err != nil {
			return err
		}
		result = locations
	}

	return write(out, util.Format, result)
}

func write(out io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml encoding failed: %w", err)
		}
		return enc.Close()

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	default:
		return fmt.Errorf("unknown output format %q: must be \"json\" or \"yaml\"", format)
	}
}
