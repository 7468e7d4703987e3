package clientcli

import "errors"

// Profile file errors.
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrNoProfiles        = errors.New("no profiles configured")
	ErrProfileExists     = errors.New("profile already exists")
	ErrInvalidConfigFile = errors.New("invalid config file")
)

// Missing settings, reported before any network call.
var (
	ErrAppKeyRequired     = errors.New("app key is required (run 'sialo register' or set APP_KEY)")
	ErrSeedPhraseRequired = errors.New("seed phrase is required (set --seed-phrase or SEED_PHRASE)")
	ErrConfigRequired     = errors.New("config is required")
	ErrEmptyPath          = errors.New("path is required")
	ErrEmptySource        = errors.New("source is required")
)
