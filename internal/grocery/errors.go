package grocery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ValidationError indicates a missing or malformed query parameter. It is
// raised before any upstream call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Status() (int, string) {
	return http.StatusBadRequest, e.Error()
}

// UnknownProviderError indicates the requested store is not configured.
type UnknownProviderError struct {
	Name string
}

func (e UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown store %q", e.Name)
}

func (e UnknownProviderError) Status() (int, string) {
	return http.StatusBadRequest, "unknown store"
}

// AuthError indicates the provider credential exchange or request signing
// failed. The cause is retained for logging only.
type AuthError struct {
	Provider string
	Cause    error
}

func (e AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Cause)
}

func (e AuthError) Unwrap() error {
	return e.Cause
}

func (e AuthError) Status() (int, string) {
	return http.StatusBadGateway, "provider authentication failed"
}

// UpstreamError indicates a non-success response or transport failure from a
// provider. StatusCode is zero for transport failures.
type UpstreamError struct {
	Provider   string
	Operation  string
	StatusCode int
	Cause      error
}

func (e UpstreamError) Error() string {
	if e.StatusCode != 0 {
		msg := fmt.Sprintf("%s %s: upstream returned status %d", e.Provider, e.Operation, e.StatusCode)
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
		return msg
	}
	return fmt.Sprintf("%s %s: upstream request failed: %v", e.Provider, e.Operation, e.Cause)
}

func (e UpstreamError) Unwrap() error {
	return e.Cause
}

func (e UpstreamError) Status() (int, string) {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "provider request timed out"
	}
	return http.StatusBadGateway, "provider request failed"
}

// HTTPStatuser provides HTTP status information for errors.
type HTTPStatuser interface {
	Status() (int, string)
}

// ErrorStatus extracts the HTTP status code and client-safe message from an
// error. Errors that don't implement HTTPStatuser are reported as internal
// errors without detail.
func ErrorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
