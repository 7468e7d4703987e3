package clientcli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/sialo"
	"gopkg.in/yaml.v3"
)

// DefaultIndexerURL is the indexer used when none is configured.
const DefaultIndexerURL = "https://app.sia.storage"

// Profile holds configuration for a single indexer account.
type Profile struct {
	Name       string `yaml:"name" validate:"required"`
	IndexerURL string `yaml:"indexer_url" validate:"required,url"`
	AppKey     string `yaml:"app_key,omitempty" validate:"omitempty,hexadecimal,len=128"`
	Default    bool   `yaml:"default,omitempty"`
}

// ConfigFile holds the full config file structure with multiple profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles" validate:"dive"`
}

func (c *ConfigFile) index(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

// GetProfile returns the profile by name.
// If name is empty, returns the default profile.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if name == "" {
		return c.GetDefaultProfile()
	}

	i := c.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, or the first
// profile when none is marked.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
		return &c.Profiles[i], nil
	}
	return &c.Profiles[0], nil
}

// AddProfile adds a new profile. Returns ErrProfileExists if a profile
// with the same name already exists.
func (c *ConfigFile) AddProfile(p Profile) error {
	if c.index(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpsertProfile adds p or replaces the profile with the same name.
func (c *ConfigFile) UpsertProfile(p Profile) {
	if i := c.index(p.Name); i >= 0 {
		c.Profiles[i] = p
		return
	}
	c.Profiles = append(c.Profiles, p)
}

// RemoveProfile removes a profile by name.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks name as the only default profile.
func (c *ConfigFile) SetDefault(name string) error {
	target := c.index(name)
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = i == target
	}
	return nil
}

// DefaultName returns the name of the default profile, or "" when there
// are no profiles.
func (c *ConfigFile) DefaultName() string {
	p, err := c.GetDefaultProfile()
	if err != nil {
		return ""
	}
	return p.Name
}

// Save writes the file with owner-only permissions, creating the parent
// directory. The file holds application keys.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads and validates the profile file at path. A missing
// file is reported with an error wrapping os.ErrNotExist.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfigFile, path, err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns the default config file path (~/.sialo/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sialo", "config.yaml")
}

// DefaultHistoryPath returns the default history database path (~/.sialo/history.db).
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sialo", "history.db")
}

// Config holds resolved client configuration.
// This is what the Client uses after profile resolution.
type Config struct {
	IndexerURL  string
	AppKey      string
	SeedPhrase  string
	AppMetadata string
}

// WithDefaults returns a copy of the config with default values applied.
// If IndexerURL is empty, it defaults to DefaultIndexerURL.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.IndexerURL == "" {
		cfg.IndexerURL = DefaultIndexerURL
	}
	return &cfg
}

// ParsedAppKey validates and decodes the configured application key.
func (c *Config) ParsedAppKey() (sialo.AppKey, error) {
	if c.AppKey == "" {
		return sialo.AppKey{}, ErrAppKeyRequired
	}
	return sialo.ParseAppKey(c.AppKey)
}

// ValidateForRegister checks the fields the register command needs.
func (c *Config) ValidateForRegister() error {
	if c.SeedPhrase == "" {
		return ErrSeedPhraseRequired
	}
	return nil
}

// ConfigFromProfile creates a Config from a Profile.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{
		IndexerURL: p.IndexerURL,
		AppKey:     p.AppKey,
	}
}

// ConfigFromEnv loads config from environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		IndexerURL:  os.Getenv("INDEXER_URL"),
		AppKey:      os.Getenv("APP_KEY"),
		SeedPhrase:  os.Getenv("SEED_PHRASE"),
		AppMetadata: os.Getenv("APP_METADATA"),
	}
}

// ProfileFromEnv returns the profile name from SIALO_PROFILE environment variable.
func ProfileFromEnv() string {
	return os.Getenv("SIALO_PROFILE")
}

// ConfigPathFromEnv returns the config file path from SIALO_CONFIG environment variable.
func ConfigPathFromEnv() string {
	return os.Getenv("SIALO_CONFIG")
}

// MergeConfig merges multiple configs, with later configs taking precedence.
// Empty strings in later configs do not override non-empty values in earlier configs.
func MergeConfig(configs ...*Config) (*Config, error) {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if err := mergo.Merge(result, cfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge config: %w", err)
		}
	}
	return result, nil
}
