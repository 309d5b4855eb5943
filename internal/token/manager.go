// Package token manages OAuth2 client-credential tokens for providers that
// authenticate with a bearer token.
package token

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ExpiryMargin is subtracted from the provider's stated expiry, so a token is
// refreshed before the provider would reject it.
const ExpiryMargin = 60 * time.Second

// Token is a bearer credential and the instant after which it must no longer
// be used.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Config describes a client-credentials exchange.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// Manager owns the token for a single provider. The cached token is reused
// until it reaches ExpiresAt; refresh is serialized so concurrent callers
// share one exchange.
type Manager struct {
	provider string
	source   oauth2.TokenSource
}

// New creates a Manager for the named provider. The supplied HTTP client is
// used for every exchange; nil selects http.DefaultClient.
func New(provider string, cfg Config, client *http.Client) (*Manager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client id and secret are required for the token exchange")
	}

	if cfg.TokenURL == "" {
		return nil, errors.New("token URL is required for the token exchange")
	}

	if client == nil {
		client = http.DefaultClient
	}
	client = withRawBasicAuth(client, cfg.ClientID, cfg.ClientSecret)

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if cfg.Scope != "" {
		cc.Scopes = []string{cfg.Scope}
	}

	// The exchange context lives as long as the manager: it carries only the
	// HTTP client, request-scoped cancellation is checked in Token.
	exchangeCtx := context.WithValue(context.Background(), oauth2.HTTPClient, client)

	source := &exchangeLogger{
		provider: provider,
		source:   cc.TokenSource(exchangeCtx),
	}

	return &Manager{
		provider: provider,
		source:   oauth2.ReuseTokenSourceWithExpiry(nil, source, ExpiryMargin),
	}, nil
}

// Token returns the cached token, performing a client-credentials exchange
// when none is held or the held token has expired.
func (m *Manager) Token(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, grocery.AuthError{Provider: m.provider, Cause: err}
	}

	tok, err := m.source.Token()
	if err != nil {
		return Token{}, grocery.AuthError{Provider: m.provider, Cause: err}
	}

	t := Token{Value: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		t.ExpiresAt = tok.Expiry.Add(-ExpiryMargin)
	}

	return t, nil
}

// Value returns only the bearer credential string.
func (m *Manager) Value(ctx context.Context) (string, error) {
	t, err := m.Token(ctx)
	if err != nil {
		return "", err
	}

	return t.Value, nil
}

// exchangeLogger records each upstream exchange. It sits beneath the reuse
// layer so cached reads are not logged.
type exchangeLogger struct {
	provider string
	source   oauth2.TokenSource
}

func (e *exchangeLogger) Token() (*oauth2.Token, error) {
	start := time.Now()

	tok, err := e.source.Token()
	if err != nil {
		evt := log.Warn().Err(err).Str("provider", e.provider)

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			evt = evt.Int("status", retrieveErr.Response.StatusCode)
		}

		evt.Msg("token exchange failed")
		return nil, err
	}

	log.Debug().
		Str("provider", e.provider).
		Time("expiry", tok.Expiry).
		Dur("duration", time.Since(start)).
		Msg("token exchanged")

	return tok, nil
}

// rawBasicAuth replaces the Authorization header x/oauth2 builds for the
// exchange. x/oauth2 form-encodes the id and secret before Basic encoding;
// providers expect the raw "id:secret" pair.
type rawBasicAuth struct {
	base         http.RoundTripper
	clientID     string
	clientSecret string
}

func withRawBasicAuth(client *http.Client, clientID, clientSecret string) *http.Client {
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	wrapped := *client
	wrapped.Transport = &rawBasicAuth{
		base:         base,
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	return &wrapped
}

func (t *rawBasicAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.clientID, t.clientSecret)

	return t.base.RoundTrip(req)
}
