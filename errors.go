package sialo

import "errors"

var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidHex is returned when an identifier is not valid hex
	ErrInvalidHex = errors.New("invalid hex")
	// ErrInvalidLength is returned when a decoded identifier has the wrong size
	ErrInvalidLength = errors.New("invalid length")
)

var (
	// ErrInvalidExpiry is returned when an expiry is neither a duration nor a timestamp
	ErrInvalidExpiry = errors.New("expected duration (1h, 10d, 4w) or ISO 8601 timestamp")
	// ErrExpiryOverflow is returned when an expiry lands outside years 0000 to 9999
	ErrExpiryOverflow = errors.New("duration overflow")
)

var (
	// ErrZeroDataShards is returned when an upload plan has no data shards
	ErrZeroDataShards = errors.New("data shards must be greater than zero")
	// ErrZeroSectorSize is returned when an upload plan has no sector size
	ErrZeroSectorSize = errors.New("sector size must be greater than zero")
	// ErrPlanOverflow is returned when slab or shard totals do not fit in 64 bits
	ErrPlanOverflow = errors.New("upload plan exceeds 64-bit limits")
)

// ErrUnsupportedScheme is returned when a share URL is neither sia:// nor https://
var ErrUnsupportedScheme = errors.New("unsupported url scheme")
