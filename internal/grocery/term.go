package grocery

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeTerm case-folds an item search term and collapses internal
// whitespace. Upstream queries use the caller's term as given; the normalized
// form is used for cache keys.
func NormalizeTerm(term string) string {
	return cases.Fold().String(strings.Join(strings.Fields(term), " "))
}

// ValidateTerm rejects empty item terms.
func ValidateTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return ValidationError{Field: "item", Reason: "item term is required"}
	}
	return nil
}
