package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chinmina/grocery-bridge/internal/aggregate"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	locations []grocery.StoreLocation
	products  map[string]aggregate.LocationProducts
	err       error

	store       string
	coords      grocery.Coordinates
	locationIDs []string
	term        string
}

func (f *fakeLookup) Locations(_ context.Context, store string, coords grocery.Coordinates) ([]grocery.StoreLocation, error) {
	f.store = store
	f.coords = coords
	return f.locations, f.err
}

func (f *fakeLookup) Products(_ context.Context, store string, locationIDs []string, term string) (map[string]aggregate.LocationProducts, error) {
	f.store = store
	f.locationIDs = locationIDs
	f.term = term
	return f.products, f.err
}

func TestHandleGetLocation_ReturnsLocations(t *testing.T) {
	lookup := &fakeLookup{
		locations: []grocery.StoreLocation{
			{LocationID: "01400943", Chain: "KROGER", Name: "Kroger Hyde Park"},
		},
	}

	req, err := http.NewRequest("GET", "/location?store=kroger&latlong=39.1,-84.5", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	// act
	handleGetLocation(lookup).ServeHTTP(rr, req)

	// assert
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "kroger", lookup.store)
	assert.Equal(t, grocery.Coordinates{Lat: 39.1, Lon: -84.5}, lookup.coords)

	var body []grocery.StoreLocation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, lookup.locations, body)
}

func TestHandleGetLocation_InvalidCoordinates(t *testing.T) {
	lookup := &fakeLookup{}

	req, err := http.NewRequest("GET", "/location?store=kroger&latlong=north", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	handleGetLocation(lookup).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid latlong: expected <lat>,<lon>"}`, rr.Body.String())
	assert.Empty(t, lookup.store, "lookup must not be called")
}

func TestHandleGetLocation_SanitizesErrors(t *testing.T) {
	cases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "unknown store",
			err:            grocery.UnknownProviderError{Name: "aldi"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"unknown store"}`,
		},
		{
			name:           "auth failure",
			err:            grocery.AuthError{Provider: "kroger", Cause: errors.New("invalid_client: secret=hunter2")},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"provider authentication failed"}`,
		},
		{
			name:           "upstream failure",
			err:            grocery.UpstreamError{Provider: "kroger", Operation: "locations", StatusCode: 503},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"provider request failed"}`,
		},
		{
			name:           "unclassified failure",
			err:            errors.New("internal detail"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Internal Server Error"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := &fakeLookup{err: tc.err}

			req, err := http.NewRequest("GET", "/location?store=kroger&latlong=39.1,-84.5", nil)
			require.NoError(t, err)
			rr := httptest.NewRecorder()

			handleGetLocation(lookup).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			// important to know that internal details aren't part of the error response
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestHandleGetProduct_ReturnsPerLocationResults(t *testing.T) {
	lookup := &fakeLookup{
		products: map[string]aggregate.LocationProducts{
			"01400943": {Products: []grocery.Product{{ProductID: "0001111041700", Description: "Milk", Price: 2.49}}},
			"01400376": {Products: []grocery.Product{}},
			"01400999": {
				Products: []grocery.Product{},
				Err:      grocery.UpstreamError{Provider: "kroger", Operation: "products", StatusCode: 500, Cause: errors.New("boom")},
			},
		},
	}

	req, err := http.NewRequest("GET", "/product?store=kroger&item=milk&locationIds=01400943&locationIds=01400376&locationIds=01400999", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	// act
	handleGetProduct(lookup).ServeHTTP(rr, req)

	// assert
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "kroger", lookup.store)
	assert.Equal(t, "milk", lookup.term)
	assert.Equal(t, []string{"01400943", "01400376", "01400999"}, lookup.locationIDs)

	var body map[string]LocationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	require.Len(t, body, 3)
	assert.Len(t, body["01400943"].Products, 1)
	assert.Empty(t, body["01400943"].Error)
	assert.NotNil(t, body["01400376"].Products)
	assert.Empty(t, body["01400376"].Products)
	assert.Equal(t, "provider request failed", body["01400999"].Error)
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestHandleGetProduct_WalmartWithoutLocations(t *testing.T) {
	lookup := &fakeLookup{
		products: map[string]aggregate.LocationProducts{
			"walmart": {Products: []grocery.Product{{ProductID: "1000"}}},
		},
	}

	req, err := http.NewRequest("GET", "/product?store=walmart&item=milk", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	handleGetProduct(lookup).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"walmart"}, lookup.locationIDs)
	assert.JSONEq(t, `{"walmart":{"products":[{"productId":"1000","upc":"","brand":"","description":"","imageUrl":"","price":0,"size":"","soldBy":""}]}}`, rr.Body.String())
}

func TestHandleGetProduct_RequestFailure(t *testing.T) {
	lookup := &fakeLookup{err: grocery.ValidationError{Field: "item", Reason: "must not be empty"}}

	req, err := http.NewRequest("GET", "/product?store=kroger&locationIds=01400943", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	handleGetProduct(lookup).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid item: must not be empty"}`, rr.Body.String())
}

func TestConfigureServerRoutes(t *testing.T) {
	lookup := &fakeLookup{locations: []grocery.StoreLocation{}}
	handler := configureServerRoutes(lookup)

	cases := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{"GET", "/healthcheck", http.StatusOK},
		{"GET", "/location?store=kroger&latlong=39.1,-84.5", http.StatusOK},
		{"POST", "/location?store=kroger&latlong=39.1,-84.5", http.StatusMethodNotAllowed},
		{"GET", "/unknown", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestHandleHealthCheck_Success(t *testing.T) {
	req, err := http.NewRequest("GET", "/healthcheck", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	// act
	handler := handleHealthCheck()
	handler.ServeHTTP(rr, req)

	// assert
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, "OK", rr.Body.String())
}

func TestMaxRequestSizeMiddleware(t *testing.T) {
	mw := maxRequestSize(10)

	var readError error
	var readBytes int64

	innerHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		readBytes, readError = io.CopyN(io.Discard, r.Body, 5*1024*1024)

		status := http.StatusOK
		if readError != nil {
			status = http.StatusBadRequest
		}

		w.WriteHeader(status)
	})

	handler := mw(innerHandler)

	body := bytes.NewBufferString("0123456789n123456789")
	req, err := http.NewRequest("GET", "/location", body)
	require.NoError(t, err)

	rr := httptest.NewRecorder()

	// act
	handler.ServeHTTP(rr, req)

	// assert
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.ErrorContains(t, readError, "http: request body too large")
	assert.Equal(t, int64(10), readBytes)
	assert.Equal(t, "", rr.Body.String())
}
