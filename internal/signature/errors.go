package signature

import (
	"fmt"
	"net/http"
)

// SigningError indicates that the signing key could not be loaded or that the
// signature could not be produced.
type SigningError struct {
	Cause error
}

func (e SigningError) Error() string {
	return fmt.Sprintf("request signing failed: %v", e.Cause)
}

func (e SigningError) Unwrap() error {
	return e.Cause
}

// Status reports signing failures as an authentication failure against the
// provider; key details are never exposed to clients.
func (e SigningError) Status() (int, string) {
	return http.StatusBadGateway, "provider authentication failed"
}
