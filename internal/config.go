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

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	Assets  AssetsConfig      `yaml:"assets"`
	Session SessionConfig     `yaml:"session"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
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

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the snapshot persistence backend.
//
// Backend is "file" (one JSON file per slot in Path, atomic writes) or
// "sqlite" (key-value table in the database file at Path). Locale sets the
// collation language for title sorting. SaveDelayMS is the debounce window
// for snapshot writes.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Locale      string `yaml:"locale"`
	SaveDelayMS int    `yaml:"save_delay_ms"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(StoreBackendFile, StoreBackendSQLite)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.SaveDelayMS, validation.Min(0)),
	)
}

// SaveDelay returns the snapshot debounce window.
func (c *StoreConfig) SaveDelay() time.Duration {
	return time.Duration(c.SaveDelayMS) * time.Millisecond
}

// AssetsConfig holds the path to the media asset directory.
type AssetsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SessionConfig holds editing session configuration. SaveDelayMS is the
// autosave debounce window per open session.
type SessionConfig struct {
	SaveDelayMS int `yaml:"save_delay_ms"`
}

// SaveDelay returns the autosave debounce window.
func (c *SessionConfig) SaveDelay() time.Duration {
	return time.Duration(c.SaveDelayMS) * time.Millisecond
}

// AuthConfig holds authentication configuration.
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
		Store: StoreConfig{
			Backend:     StoreBackendFile,
			Path:        "./data",
			SaveDelayMS: 500,
		},
		Assets: AssetsConfig{
			Path: "./data/assets",
		},
		Session: SessionConfig{
			SaveDelayMS: 500,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
