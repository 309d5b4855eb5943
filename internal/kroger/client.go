// Package kroger adapts the Kroger public API, authenticated with an OAuth2
// client-credentials bearer token, to the grocery.Provider interface.
package kroger

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/token"
	"github.com/chinmina/grocery-bridge/internal/upstream"
)

// Name identifies the provider in routes and cache keys.
const Name = "kroger"

type Client struct {
	api *upstream.Client
}

// New creates a Kroger client. Credentials are checked immediately so a
// misconfigured deployment fails at startup. The options apply to catalog
// requests; the token exchange is not limited.
func New(cfg config.KrogerConfig, httpClient *http.Client, opts ...upstream.Option) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("KROGER_API_URL must be configured")
	}

	tokens, err := token.New(Name, token.Config{
		TokenURL:     strings.TrimRight(cfg.APIURL, "/") + "/connect/oauth2/token",
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        cfg.Scope,
	}, httpClient)
	if err != nil {
		return nil, err
	}

	api, err := upstream.New(Name, cfg.APIURL, httpClient, bearer(tokens), opts...)
	if err != nil {
		return nil, err
	}

	return &Client{api: api}, nil
}

func bearer(tokens *token.Manager) upstream.Authorizer {
	return func(ctx context.Context, h http.Header) error {
		v, err := tokens.Value(ctx)
		if err != nil {
			return err
		}
		h.Set("Authorization", "Bearer "+v)
		return nil
	}
}

func (c *Client) Name() string {
	return Name
}

// Locations returns up to five Kroger stores nearest to coords.
func (c *Client) Locations(ctx context.Context, coords grocery.Coordinates) ([]grocery.StoreLocation, error) {
	query := url.Values{
		"filter.latLong.near": {coords.String()},
		"filter.limit":        {strconv.Itoa(grocery.MaxResults)},
	}

	var resp locationsResponse
	if err := c.api.GetJSON(ctx, "locations", "locations", query, &resp); err != nil {
		return nil, err
	}

	return toLocations(resp.Data), nil
}

// Products searches the catalog of a single store for term, returning up to
// five products.
func (c *Client) Products(ctx context.Context, locationID string, term string) ([]grocery.Product, error) {
	if locationID == "" {
		return nil, grocery.ValidationError{Field: "locationIds", Reason: "location id is required"}
	}

	query := url.Values{
		"filter.term":       {term},
		"filter.locationId": {locationID},
		"filter.limit":      {strconv.Itoa(grocery.MaxResults)},
	}

	var resp productsResponse
	if err := c.api.GetJSON(ctx, "products", "products", query, &resp); err != nil {
		return nil, err
	}

	return toProducts(resp.Data), nil
}
