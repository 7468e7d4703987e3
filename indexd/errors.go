package indexd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrStageConsumed is returned when a handshake stage is used twice.
	ErrStageConsumed = errors.New("handshake stage already used")
	// ErrRejected is returned when the operator rejects the connection request.
	ErrRejected = errors.New("connection request rejected")
	// ErrNotConnected is returned when the indexer does not recognise the app key.
	ErrNotConnected = errors.New("app key is not registered with the indexer")
	// ErrInvalidSeedPhrase is returned when a mnemonic fails BIP-39 validation.
	ErrInvalidSeedPhrase = errors.New("invalid seed phrase")
	// ErrInvalidURL is returned when the indexer URL cannot be used.
	ErrInvalidURL = errors.New("invalid indexer url")
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExpired      = errors.New("expired")
	ErrBadRequest   = errors.New("bad request")
)

var (
	// ErrCorruptShard is returned when downloaded shard bytes do not hash to their root.
	ErrCorruptShard = errors.New("shard does not match its root")
	// ErrNotEnoughShards is returned when too few shards survive to rebuild a slab.
	ErrNotEnoughShards = errors.New("not enough shards to recover slab")
	// ErrInvalidOptions is returned for unusable erasure coding parameters.
	ErrInvalidOptions = errors.New("invalid upload options")
)

// APIError is a non-2xx response from the indexer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("indexer error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Is matches an APIError against the sentinel for its status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrExpired:
		return e.StatusCode == http.StatusGone
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: body}
}
