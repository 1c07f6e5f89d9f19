package foundry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
)

// SiteConfig holds all configuration for a foundry studio server.
type SiteConfig struct {
	Name string `mapstructure:"name"` // Studio site name (default "Foundry")
	URL  string `mapstructure:"url"`  // Canonical URL (default "http://localhost:3000")

	Addr         string `mapstructure:"addr"`          // Listen address (default ":3000")
	DatabasePath string `mapstructure:"database_path"` // SQLite path (default "data/foundry.db")
	StaticDir    string `mapstructure:"static_dir"`    // Static assets, uploads and fonts (default "public")

	StudioID   string `mapstructure:"studio_id"`   // Owning studio (default "studio")
	StudioName string `mapstructure:"studio_name"` // Display name of the studio

	StaffPassword string `mapstructure:"staff_password"` // Required: staff login password
	SessionSecret string `mapstructure:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true for HTTPS

	StudioCacheTTL time.Duration `mapstructure:"studio_cache_ttl"` // Studio cache TTL (default 5min)
	WorkspaceTTL   time.Duration `mapstructure:"workspace_ttl"`    // Idle workspace expiry (default 30min)

	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error (default "info")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Foundry"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/foundry.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.StudioID == "" {
		c.StudioID = "studio"
	}
	if c.StudioName == "" {
		c.StudioName = c.Name
	}
	if c.StudioCacheTTL <= 0 {
		c.StudioCacheTTL = 5 * time.Minute
	}
	if c.WorkspaceTTL <= 0 {
		c.WorkspaceTTL = 30 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports missing required settings.
func (c SiteConfig) Validate() error {
	if c.StaffPassword == "" {
		return fmt.Errorf("foundry: StaffPassword is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("foundry: SessionSecret is required")
	}
	return nil
}

// Level maps LogLevel to an Echo log level. Unknown names mean info.
func (c SiteConfig) Level() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// LoadConfig reads configuration from an optional file and FOUNDRY_*
// environment variables. When path is empty, foundry.yaml is looked up in
// the working directory. A missing file is not an error.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()
	var defaults SiteConfig
	defaults.setDefaults()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("url", defaults.URL)
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("static_dir", defaults.StaticDir)
	v.SetDefault("studio_id", defaults.StudioID)
	v.SetDefault("studio_name", "")
	v.SetDefault("staff_password", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("studio_cache_ttl", defaults.StudioCacheTTL)
	v.SetDefault("workspace_ttl", defaults.WorkspaceTTL)
	v.SetDefault("log_level", defaults.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("foundry")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("FOUNDRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return SiteConfig{}, fmt.Errorf("foundry: read config: %w", err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("foundry: decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides the directory for static assets and uploads.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}
