// Package signature implements the header signing scheme used by the
// Walmart affiliate API: a fixed set of headers is canonicalized, signed
// with RSASSA-PKCS1-v1_5 over SHA-256 and sent base64 encoded alongside the
// signed headers.
package signature

import (
	"slices"
	"strings"
)

// Canonicalize orders the headers by name and returns the semicolon-joined
// header names and the newline-joined values that are signed. Both outputs
// carry a trailing separator.
func Canonicalize(headers map[string]string) (parameterNames string, stringToSign string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	slices.Sort(names)

	var nameBuf, valueBuf strings.Builder
	for _, name := range names {
		nameBuf.WriteString(strings.TrimSpace(name))
		nameBuf.WriteByte(';')

		valueBuf.WriteString(strings.TrimSpace(headers[name]))
		valueBuf.WriteByte('\n')
	}

	return nameBuf.String(), valueBuf.String()
}
