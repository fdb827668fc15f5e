package folio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SiteConfig holds the runtime configuration of the server. Site identity
// (title, description, author) is not configurable: it lives in consts.
type SiteConfig struct {
	URL  string `mapstructure:"url"`  // Canonical URL (default "http://localhost:3000")
	Addr string `mapstructure:"addr"` // Listen address (default ":3000")

	DatabasePath    string `mapstructure:"database_path"`    // SQLite path (default "data/blog.db")
	CollectionsPath string `mapstructure:"collections_path"` // Experiences/projects/certificates YAML (default "content/collections.yaml")
	StaticDir       string `mapstructure:"static_dir"`       // User static assets (default "public")

	AdminPassword string `mapstructure:"admin_password"` // Required: admin login password
	SessionSecret string `mapstructure:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true behind HTTPS

	PostCacheTTL  time.Duration `mapstructure:"post_cache_ttl"` // default 5m
	LoginAttempts int           `mapstructure:"login_attempts"` // failed logins allowed per window (default 5)
	LoginWindow   time.Duration `mapstructure:"login_window"`   // default 1m

	AnalyticsPath      string        `mapstructure:"analytics_path"`      // Visits database (default "data/analytics.db")
	AnalyticsRetention time.Duration `mapstructure:"analytics_retention"` // default 8760h (one year)
	DisableAnalytics   bool          `mapstructure:"disable_analytics"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // default 10s
	Debug           bool          `mapstructure:"debug"`
}

func (c *SiteConfig) setDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.CollectionsPath == "" {
		c.CollectionsPath = "content/collections.yaml"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LoginAttempts == 0 {
		c.LoginAttempts = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
	if c.AnalyticsPath == "" {
		c.AnalyticsPath = "data/analytics.db"
	}
	if c.AnalyticsRetention == 0 {
		c.AnalyticsRetention = 365 * 24 * time.Hour
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Validate reports missing secrets.
func (c SiteConfig) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("admin_password is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session_secret is required"))
	} else if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("session_secret must be at least 32 bytes"))
	}
	if c.LoginAttempts < 0 {
		errs = append(errs, errors.New("login_attempts must not be negative"))
	}
	return errors.Join(errs...)
}

// LoadConfig resolves configuration with precedence:
// FOLIO_* environment variables > YAML file at path > defaults.
// An empty path looks for ./folio.yaml and tolerates its absence.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()

	var defaults SiteConfig
	defaults.setDefaults()
	v.SetDefault("url", defaults.URL)
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("collections_path", defaults.CollectionsPath)
	v.SetDefault("static_dir", defaults.StaticDir)
	v.SetDefault("admin_password", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("post_cache_ttl", defaults.PostCacheTTL)
	v.SetDefault("login_attempts", defaults.LoginAttempts)
	v.SetDefault("login_window", defaults.LoginWindow)
	v.SetDefault("analytics_path", defaults.AnalyticsPath)
	v.SetDefault("analytics_retention", defaults.AnalyticsRetention)
	v.SetDefault("disable_analytics", false)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	v.SetDefault("debug", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance before
// the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStore makes the App use s instead of opening DatabasePath.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
