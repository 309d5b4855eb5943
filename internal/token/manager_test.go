package token_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/testhelpers"
	"github.com/chinmina/grocery-bridge/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, mock *testhelpers.MockKrogerServer) *token.Manager {
	t.Helper()

	m, err := token.New("kroger", token.Config{
		TokenURL:     mock.URL() + "/connect/oauth2/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scope:        "product.compact",
	}, http.DefaultClient)
	require.NoError(t, err)

	return m
}

func TestNew_RequiresCredentials(t *testing.T) {
	cases := []struct {
		name string
		cfg  token.Config
	}{
		{"missing id", token.Config{TokenURL: "http://x", ClientSecret: "s"}},
		{"missing secret", token.Config{TokenURL: "http://x", ClientID: "c"}},
		{"missing url", token.Config{ClientID: "c", ClientSecret: "s"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := token.New("kroger", tc.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestManager_ReusesTokenWithinExpiry(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()

	m := newManager(t, mock)
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)

	second, err := m.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, "test-kroger-token", first.Value)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), mock.TokenRequests.Load())
}

func TestManager_ExpiresAtIncludesMargin(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()
	mock.ExpiresIn = 1800

	m := newManager(t, mock)

	tok, err := m.Token(context.Background())
	require.NoError(t, err)

	expected := time.Now().Add(1800*time.Second - token.ExpiryMargin)
	assert.WithinDuration(t, expected, tok.ExpiresAt, 5*time.Second)
}

func TestManager_RefreshesWhenInsideMargin(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()

	// a token that expires inside the safety margin is already expired
	mock.ExpiresIn = 30

	m := newManager(t, mock)
	ctx := context.Background()

	_, err := m.Token(ctx)
	require.NoError(t, err)
	_, err = m.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), mock.TokenRequests.Load())
}

func TestManager_ConcurrentCallersShareExchange(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()

	m := newManager(t, mock)

	var wg sync.WaitGroup
	values := make([]string, 20)
	for i := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Value(context.Background())
			assert.NoError(t, err)
			values[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), mock.TokenRequests.Load())
	for _, v := range values {
		assert.Equal(t, "test-kroger-token", v)
	}
}

func TestManager_SendsClientCredentials(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()
	mock.ClientID = "client-id"
	mock.ClientSecret = "client-secret"

	m := newManager(t, mock)

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	form := mock.LastTokenForm()
	assert.Equal(t, "client_credentials", form.Get("grant_type"))
	assert.Equal(t, "product.compact", form.Get("scope"))
}

func TestManager_SendsRawSecretWithReservedCharacters(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()
	mock.ClientID = "client id+1"
	mock.ClientSecret = "a+b/c=="

	m, err := token.New("kroger", token.Config{
		TokenURL:     mock.URL() + "/connect/oauth2/token",
		ClientID:     "client id+1",
		ClientSecret: "a+b/c==",
	}, nil)
	require.NoError(t, err)

	v, err := m.Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-kroger-token", v)
}

func TestManager_ExchangeFailureIsAuthError(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()
	mock.ClientID = "client-id"
	mock.ClientSecret = "a-different-secret"

	m := newManager(t, mock)

	_, err := m.Token(context.Background())
	require.Error(t, err)

	var authErr grocery.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "kroger", authErr.Provider)

	status, msg := grocery.ErrorStatus(err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "provider authentication failed", msg)
}

func TestManager_ServerErrorIsAuthError(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()
	mock.TokenStatus = http.StatusInternalServerError

	m := newManager(t, mock)

	_, err := m.Value(context.Background())

	var authErr grocery.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestManager_CancelledContext(t *testing.T) {
	mock := testhelpers.SetupMockKrogerServer(t)
	defer mock.Close()

	m := newManager(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), mock.TokenRequests.Load())
}
