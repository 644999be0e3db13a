package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/symark/internal/site"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var baseURLPattern = regexp.MustCompile(`^https?://[^\s/]+(/\S*)?$`)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Site   SiteConfig        `yaml:"site"`
	Index  IndexConfig       `yaml:"index"`
	Watch  WatchConfig       `yaml:"watch"`
	Server ServerConfig      `yaml:"server"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Site, &c.Index, &c.Watch, &c.Server, &c.Auth} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
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
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig describes where notes come from and what the generated site
// looks like.
type SiteConfig struct {
	Source      string `yaml:"source"`
	Output      string `yaml:"output"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"base_url"`
	Author      string `yaml:"author"`
	Templates   string `yaml:"templates"`
	Locale      string `yaml:"locale"`
	Workers     int    `yaml:"workers"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required),
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.BaseURL, validation.Match(baseURLPattern)),
		validation.Field(&c.Locale, validation.By(checkLocale)),
		validation.Field(&c.Workers, validation.Min(0)),
	); err != nil {
		return err
	}
	if nested(c.Source, c.Output) {
		return errors.New("site: output must not be inside source")
	}
	return nil
}

func checkLocale(v any) error {
	s, _ := v.(string)
	if _, ok := site.ParseLocale(s); !ok {
		return fmt.Errorf("unsupported locale %q", s)
	}
	return nil
}

// nested reports whether dir is root or lies below it.
func nested(root, dir string) bool {
	a, errA := filepath.Abs(root)
	b, errB := filepath.Abs(dir)
	if errA != nil || errB != nil {
		return false
	}
	rel, err := filepath.Rel(a, b)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SiteOptions converts the configuration into build options.
func (c *SiteConfig) SiteOptions() site.Config {
	locale, _ := site.ParseLocale(c.Locale)
	return site.Config{
		Name:        c.Name,
		Description: c.Description,
		BaseURL:     c.BaseURL,
		Author:      c.Author,
		Templates:   c.Templates,
		Locale:      locale,
		Workers:     c.Workers,
	}
}

// IndexConfig holds the optional SQLite search index.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// WatchConfig controls rebuilds on source changes while serving.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// ServerConfig controls how the generated site is served.
type ServerConfig struct {
	Compress        bool          `yaml:"compress"`
	CompressMinSize int           `yaml:"compress_min_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CompressMinSize, validation.Min(0)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration for the API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, suitable for local previews.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// The generated pages themselves are always public.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// BearerToken returns the token the API must check, or "" when auth is off.
func (c *AuthConfig) BearerToken() string {
	if !c.AuthEnabled() {
		return ""
	}
	return c.Token
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
		Site: SiteConfig{
			Source: "./notes",
			Output: "./public",
			Locale: "en_US",
		},
		Index: IndexConfig{
			Path: "./symark.db",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 300 * time.Millisecond,
		},
		Server: ServerConfig{
			Compress:        true,
			CompressMinSize: 1024,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
