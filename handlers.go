package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/chinmina/grocery-bridge/internal/aggregate"
	"github.com/chinmina/grocery-bridge/internal/audit"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/walmart"
	"github.com/rs/zerolog/log"
)

// groceryLookup is the aggregation surface used by the HTTP routes.
type groceryLookup interface {
	Locations(ctx context.Context, store string, coords grocery.Coordinates) ([]grocery.StoreLocation, error)
	Products(ctx context.Context, store string, locationIDs []string, term string) (map[string]aggregate.LocationProducts, error)
}

// LocationResult is the per-location payload of the product route. Error
// holds the client-safe message when that location could not be searched.
type LocationResult struct {
	Products []grocery.Product `json:"products"`
	Error    string            `json:"error,omitempty"`
}

func handleGetLocation(lookup groceryLookup) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		query := r.URL.Query()

		coords, err := grocery.ParseCoordinates(query.Get("latlong"))
		if err != nil {
			requestFailed(w, r, "location lookup failed", err)
			return
		}

		locations, err := lookup.Locations(r.Context(), query.Get("store"), coords)
		if err != nil {
			requestFailed(w, r, "location lookup failed", err)
			return
		}

		writeJSON(w, locations)
	})
}

func handleGetProduct(lookup groceryLookup) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		query := r.URL.Query()
		store := query.Get("store")
		locationIDs := query["locationIds"]

		// Walmart searches are chain-wide, so a request may omit locations.
		if store == walmart.Name && len(locationIDs) == 0 {
			locationIDs = []string{walmart.Name}
		}

		results, err := lookup.Products(r.Context(), store, locationIDs, query.Get("item"))
		if err != nil {
			requestFailed(w, r, "product lookup failed", err)
			return
		}

		response := make(map[string]LocationResult, len(results))
		for id, result := range results {
			lr := LocationResult{Products: result.Products}
			if result.Err != nil {
				_, lr.Error = grocery.ErrorStatus(result.Err)
			}
			response[id] = lr
		}

		writeJSON(w, response)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// requestFailed logs the full error and replies with its sanitized form.
func requestFailed(w http.ResponseWriter, r *http.Request, msg string, err error) {
	audit.Log(r.Context()).Error = err.Error()

	status, message := grocery.ErrorStatus(err)
	log.Ctx(r.Context()).Info().Err(err).Int("status", status).Msg(msg)

	writeJSONError(w, status, message)
}

func writeJSON(w http.ResponseWriter, body any) {
	marshalled, err := json.Marshal(body)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(marshalled)
	if err != nil {
		// record failure to log: trying to respond to the client at this
		// point will likely fail
		log.Info().Msgf("failed to write response: %v", err)
	}
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// At this point the status code has been written, so we can only log
		log.Info().Msgf("failed to write JSON error response: %v", err)
	}
}

// drainRequestBody drains the request body by reading and discarding the contents.
// This is useful to ensure the request body is fully consumed, which is important
// for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5 MB max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}
