package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/booker/internal/templates"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config is the booker configuration, loaded from YAML by pkg/config.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Booker BookerConfig      `yaml:"booker"`
	Events EventsConfig      `yaml:"events"`
}

// Validate checks every section in turn and reports the first failure,
// prefixed with the section's YAML key.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"app", &c.App},
		{"vault", &c.Vault},
		{"sqlite", &c.SQLite},
		{"auth", &c.Auth},
		{"booker", &c.Booker},
		{"events", &c.Events},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ApplicationConfig holds process-wide settings.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig configures the REST listener.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// ShutdownTimeout bounds graceful shutdown. Zero means 10s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the listen address for Port.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

func (c *HTTPConfig) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return c.ShutdownTimeout
}

// VaultConfig holds the path to the directory of reading-log documents.
type VaultConfig struct {
	Path string `yaml:"path"`
}

func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c, validation.Field(&c.Path, validation.Required))
}

// SQLiteConfig holds the location of the book catalog database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c, validation.Field(&c.Path, validation.Required))
}

// AuthConfig selects how API requests are authenticated. An empty Mode is
// treated as disabled; "token" requires a non-empty bearer Token.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
		validation.Field(&c.Token,
			validation.When(c.Mode == AuthModeToken, validation.Required.Error("token is empty in token mode"))),
	)
}

// AuthEnabled reports whether bearer tokens are enforced.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// BookerConfig holds reading-log behaviour.
type BookerConfig struct {
	// DefaultTemplate is used when a table is created without naming one.
	DefaultTemplate string `yaml:"default_template"`
	// SyncOnStart re-indexes the vault before serving.
	SyncOnStart bool `yaml:"sync_on_start"`
}

func (c *BookerConfig) Validate() error {
	names := templates.Names()
	allowed := make([]any, len(names))
	for i, n := range names {
		allowed[i] = n
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultTemplate, validation.Required, validation.In(allowed...)),
	)
}

// EventsConfig tunes change notifications.
type EventsConfig struct {
	// Watch keeps the catalog in step with edits made outside booker.
	Watch bool `yaml:"watch"`
	// LibraryThrottle is the minimum gap between library.updated events.
	LibraryThrottle time.Duration `yaml:"library_throttle"`
}

func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LibraryThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns the configuration used when no file is given.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP:     HTTPConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		},
		Vault:  VaultConfig{Path: "./vault"},
		SQLite: SQLiteConfig{Path: "./booker.db"},
		Auth:   AuthConfig{Mode: AuthModeDisabled},
		Booker: BookerConfig{
			DefaultTemplate: templates.Basic,
			SyncOnStart:     true,
		},
		Events: EventsConfig{
			Watch:           true,
			LibraryThrottle: 2 * time.Second,
		},
	}
}
