package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Repo  RepoConfig        `yaml:"repo"`
	Cache CacheConfig       `yaml:"cache"`
	Sync  SyncConfig        `yaml:"sync"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Repo.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RepoConfig identifies the tracked GitHub repository.
//
// An empty Token means unauthenticated public access (stricter rate limits).
type RepoConfig struct {
	Owner    string `yaml:"owner"`
	Name     string `yaml:"name"`
	Branch   string `yaml:"branch"`
	BasePath string `yaml:"base_path"`
	Token    string `yaml:"token"`
}

// Validate validates the repository configuration.
func (c *RepoConfig) Validate() error {
	if c.Branch == "" {
		c.Branch = "main"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Name, validation.Required),
	)
}

// CacheConfig holds document cache configuration. SnapshotPath may be empty
// to run memory-only (cold starts then always hit the network).
type CacheConfig struct {
	SnapshotPath string        `yaml:"snapshot_path"`
	Freshness    time.Duration `yaml:"freshness"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Freshness, validation.Required, validation.Min(time.Second)),
	)
}

// SyncConfig holds the polling configuration.
type SyncConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Second)),
	)
}

// AuthConfig holds API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Repo: RepoConfig{
			Branch:   "main",
			BasePath: "docs",
		},
		Cache: CacheConfig{
			SnapshotPath: "./lore.db",
			Freshness:    5 * time.Minute,
		},
		Sync: SyncConfig{
			PollInterval: 30 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
