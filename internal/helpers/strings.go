package helpers

import (
	"net/url"
	"strings"
)

// String returns the dereferenced value of the input pointer if it's not nil, otherwise, it returns an empty string.
func String(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Unescape URL-decodes s. Values that are not valid escapes are returned unchanged.
func Unescape(s string) string {
	u, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// ContainsAny reports whether s contains at least one of the given substrings.
func ContainsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
