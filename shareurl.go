package sialo

import (
	"fmt"
	"strings"
)

const (
	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
	schemeSia   = "sia://"
)

// ToSiaURL returns the sia:// alias of an https:// share link. Only the
// scheme changes; any other input is returned as is.
func ToSiaURL(u string) string {
	if rest, ok := strings.CutPrefix(u, schemeHTTPS); ok {
		return schemeSia + rest
	}
	return u
}

// FromSiaURL is the inverse of ToSiaURL.
func FromSiaURL(u string) string {
	if rest, ok := strings.CutPrefix(u, schemeSia); ok {
		return schemeHTTPS + rest
	}
	return u
}

// IsShareURL reports whether s looks like a share link rather than an
// object hash. Plain http:// links come from local indexers.
func IsShareURL(s string) bool {
	return strings.HasPrefix(s, schemeSia) ||
		strings.HasPrefix(s, schemeHTTPS) ||
		strings.HasPrefix(s, schemeHTTP)
}

// NormalizeShareURL returns the fetchable form of a share link: sia://
// becomes https://, and http(s):// links are returned unchanged.
func NormalizeShareURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsShareURL(s) {
		return "", fmt.Errorf("normalize share url: %w: %q", ErrUnsupportedScheme, s)
	}
	return FromSiaURL(s), nil
}
