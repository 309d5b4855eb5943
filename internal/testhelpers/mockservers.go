package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

// MockKrogerServer provides a configurable mock of the Kroger public API:
// the client-credentials token endpoint plus location and product search.
type MockKrogerServer struct {
	Server *httptest.Server

	ClientID     string // expected Basic auth user; unchecked when empty
	ClientSecret string // expected Basic auth password
	Token        string // access token issued by the token endpoint
	ExpiresIn    int    // expires_in returned with each token

	TokenStatus     int // HTTP status for the token endpoint (200 if not set)
	LocationsStatus int // HTTP status for /locations (200 if not set)
	ProductsStatus  int // HTTP status for /products (200 if not set)

	// Locations is served verbatim from /locations.
	Locations any
	// Products is served from /products for any location not present in
	// ProductsByLocation.
	Products           any
	ProductsByLocation map[string]any

	TokenRequests    atomic.Int32
	LocationRequests atomic.Int32
	ProductRequests  atomic.Int32

	mu            sync.Mutex
	lastAuth      string
	lastQuery     url.Values
	lastTokenForm url.Values
}

// SetupMockKrogerServer creates a mock Kroger API that issues tokens and
// answers location and product searches with the configured payloads.
func SetupMockKrogerServer(t *testing.T) *MockKrogerServer {
	t.Helper()

	mock := &MockKrogerServer{
		Token:     "test-kroger-token",
		ExpiresIn: 1800,
		Locations: KrogerLocations(1),
		Products:  KrogerProducts(1),
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /connect/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		mock.TokenRequests.Add(1)

		_ = r.ParseForm()
		mock.mu.Lock()
		mock.lastTokenForm = r.PostForm
		mock.mu.Unlock()

		if mock.ClientID != "" {
			id, secret, ok := r.BasicAuth()
			if !ok || id != mock.ClientID || secret != mock.ClientSecret {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
		}

		if !writeStatus(w, mock.TokenStatus) {
			return
		}

		WriteJSON(w, map[string]any{
			"access_token": mock.Token,
			"token_type":   "bearer",
			"expires_in":   mock.ExpiresIn,
		})
	})

	router.HandleFunc("GET /locations", func(w http.ResponseWriter, r *http.Request) {
		mock.LocationRequests.Add(1)
		mock.capture(r)

		if !writeStatus(w, mock.LocationsStatus) {
			return
		}

		WriteJSON(w, mock.Locations)
	})

	router.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		mock.ProductRequests.Add(1)
		mock.capture(r)

		if !writeStatus(w, mock.ProductsStatus) {
			return
		}

		if payload, ok := mock.ProductsByLocation[r.URL.Query().Get("filter.locationId")]; ok {
			WriteJSON(w, payload)
			return
		}

		WriteJSON(w, mock.Products)
	})

	mock.Server = httptest.NewServer(router)
	return mock
}

// URL returns the base URL of the mock API.
func (m *MockKrogerServer) URL() string {
	return m.Server.URL
}

// LastAuthHeader returns the Authorization header of the last search request.
func (m *MockKrogerServer) LastAuthHeader() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAuth
}

// LastQuery returns the query string of the last search request.
func (m *MockKrogerServer) LastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// LastTokenForm returns the form body of the last token request.
func (m *MockKrogerServer) LastTokenForm() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTokenForm
}

// Close shuts down the mock server.
func (m *MockKrogerServer) Close() {
	m.Server.Close()
}

func (m *MockKrogerServer) capture(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAuth = r.Header.Get("Authorization")
	m.lastQuery = r.URL.Query()
}

// MockWalmartServer provides a configurable mock of the Walmart affiliate
// API, capturing the signed headers of each request.
type MockWalmartServer struct {
	Server *httptest.Server

	StoresStatus int // HTTP status for /stores (200 if not set)
	SearchStatus int // HTTP status for /search (200 if not set)

	Stores any // served verbatim from /stores
	Search any // served verbatim from /search

	StoreRequests  atomic.Int32
	SearchRequests atomic.Int32

	mu          sync.Mutex
	lastHeaders http.Header
	lastQuery   url.Values
}

// SetupMockWalmartServer creates a mock Walmart API answering store lookups
// and catalog searches with the configured payloads.
func SetupMockWalmartServer(t *testing.T) *MockWalmartServer {
	t.Helper()

	mock := &MockWalmartServer{
		Stores: WalmartStores(1),
		Search: WalmartSearch(1),
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /stores", func(w http.ResponseWriter, r *http.Request) {
		mock.StoreRequests.Add(1)
		mock.capture(r)

		if !writeStatus(w, mock.StoresStatus) {
			return
		}

		WriteJSON(w, mock.Stores)
	})

	router.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		mock.SearchRequests.Add(1)
		mock.capture(r)

		if !writeStatus(w, mock.SearchStatus) {
			return
		}

		WriteJSON(w, mock.Search)
	})

	mock.Server = httptest.NewServer(router)
	return mock
}

// URL returns the base URL of the mock API.
func (m *MockWalmartServer) URL() string {
	return m.Server.URL
}

// LastHeaders returns the request headers of the last request.
func (m *MockWalmartServer) LastHeaders() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeaders
}

// LastQuery returns the query string of the last request.
func (m *MockWalmartServer) LastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// Close shuts down the mock server.
func (m *MockWalmartServer) Close() {
	m.Server.Close()
}

func (m *MockWalmartServer) capture(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHeaders = r.Header.Clone()
	m.lastQuery = r.URL.Query()
}

// writeStatus writes a non-OK status with a small error body, returning
// false when the handler should stop.
func writeStatus(w http.ResponseWriter, status int) bool {
	if status == 0 || status == http.StatusOK {
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"errors":{"reason":"mock failure"}}`))
	return false
}

// WriteJSON is a helper function that writes a JSON response.
// It sets the Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
