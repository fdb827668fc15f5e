package folio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":3000" || cfg.URL != "http://localhost:3000" {
		t.Errorf("Addr/URL = %q/%q", cfg.Addr, cfg.URL)
	}
	if cfg.DatabasePath != "data/blog.db" || cfg.CollectionsPath != "content/collections.yaml" {
		t.Errorf("paths = %q, %q", cfg.DatabasePath, cfg.CollectionsPath)
	}
	if cfg.PostCacheTTL != 5*time.Minute || cfg.LoginAttempts != 5 || cfg.LoginWindow != time.Minute {
		t.Errorf("limits = %v %d %v", cfg.PostCacheTTL, cfg.LoginAttempts, cfg.LoginWindow)
	}
	if cfg.AnalyticsRetention != 365*24*time.Hour {
		t.Errorf("AnalyticsRetention = %v", cfg.AnalyticsRetention)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	yaml := `
url: https://gloanda.dev/
addr: ":8080"
admin_password: from-file
session_secret: file-secret-file-secret-file-secret
post_cache_ttl: 30s
login_attempts: 3
disable_analytics: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOLIO_ADMIN_PASSWORD", "from-env")
	t.Setenv("FOLIO_COOKIE_SECURE", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.URL != "https://gloanda.dev" {
		t.Errorf("URL = %q, trailing slash should be trimmed", cfg.URL)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.AdminPassword != "from-env" {
		t.Errorf("AdminPassword = %q, env should win over file", cfg.AdminPassword)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure not read from env")
	}
	if cfg.PostCacheTTL != 30*time.Second || cfg.LoginAttempts != 3 {
		t.Errorf("PostCacheTTL/LoginAttempts = %v/%d", cfg.PostCacheTTL, cfg.LoginAttempts)
	}
	if !cfg.DisableAnalytics {
		t.Error("DisableAnalytics not read from file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SiteConfig
		wantErr string
	}{
		{"ok", SiteConfig{AdminPassword: "pw", SessionSecret: strings.Repeat("x", 32)}, ""},
		{"no password", SiteConfig{SessionSecret: strings.Repeat("x", 32)}, "admin_password"},
		{"no secret", SiteConfig{AdminPassword: "pw"}, "session_secret is required"},
		{"short secret", SiteConfig{AdminPassword: "pw", SessionSecret: "short"}, "at least 32 bytes"},
		{"negative attempts", SiteConfig{AdminPassword: "pw", SessionSecret: strings.Repeat("x", 32), LoginAttempts: -1}, "login_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	a := New(SiteConfig{DatabasePath: filepath.Join(t.TempDir(), "blog.db")})
	if err := a.Setup(); err == nil {
		t.Fatal("Setup should fail without secrets")
	}
}
