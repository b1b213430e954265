// Package validation provides functionality for validating the API key of incoming requests.
package validation

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// APIKeyHeader is the header carrying the API key.
const APIKeyHeader = "x-api-key"

// APIKey represents the key that callers must present to use the REST API.
type APIKey string

// NewAPIKey creates a new APIKey instance from the provided key and returns its address.
func NewAPIKey(key string) *APIKey {
	k := APIKey(key)
	return &k
}

// Validate compares the key presented in the request headers with the expected key in constant time.
func (k *APIKey) Validate(headers http.Header) error {
	if k == nil || *k == "" {
		return errors.New("missing API key configuration")
	}
	presented := headers.Get(APIKeyHeader)
	if presented == "" {
		return errors.New("missing API key")
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*k)) != 1 {
		return errors.New("invalid API key")
	}
	return nil
}
