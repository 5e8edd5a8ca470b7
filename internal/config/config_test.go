package config

import (
	"strings"
	"testing"
	"time"
)

// envMap returns a getenv function backed by a map
func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestLoadSiteConfig(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     string
		wantAddress string
		wantWiki    string
		wantTimeout time.Duration
	}{
		{
			name:        "address only uses defaults",
			env:         map[string]string{"ADDRESS": "https://automationexercise.com"},
			wantAddress: "https://automationexercise.com",
			wantWiki:    DefaultWikiURL,
			wantTimeout: DefaultTimeout,
		},
		{
			name:        "trailing slash trimmed",
			env:         map[string]string{"ADDRESS": "http://localhost:8080/ "},
			wantAddress: "http://localhost:8080",
			wantWiki:    DefaultWikiURL,
			wantTimeout: DefaultTimeout,
		},
		{
			name: "overrides",
			env: map[string]string{
				"ADDRESS":  "http://localhost:9000",
				"WIKI_URL": "http://wiki.local/Main",
				"TIMEOUT":  "12s",
			},
			wantAddress: "http://localhost:9000",
			wantWiki:    "http://wiki.local/Main",
			wantTimeout: 12 * time.Second,
		},
		{
			name:    "missing address",
			env:     map[string]string{},
			wantErr: "ADDRESS is required",
		},
		{
			name:    "relative address",
			env:     map[string]string{"ADDRESS": "localhost:8080"},
			wantErr: "absolute URL",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"ADDRESS": "http://localhost", "TIMEOUT": "soon"},
			wantErr: "invalid TIMEOUT",
		},
		{
			name:    "zero timeout",
			env:     map[string]string{"ADDRESS": "http://localhost", "TIMEOUT": "0s"},
			wantErr: "TIMEOUT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadSiteConfig(envMap(tt.env))

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Address != tt.wantAddress {
				t.Errorf("Address = %q, want %q", cfg.Address, tt.wantAddress)
			}
			if cfg.WikiURL != tt.wantWiki {
				t.Errorf("WikiURL = %q, want %q", cfg.WikiURL, tt.wantWiki)
			}
			if cfg.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.wantTimeout)
			}
		})
	}
}

func TestSiteConfig_URL(t *testing.T) {
	cfg := &SiteConfig{Address: "http://localhost:8080"}

	tests := map[string]string{
		"":          "http://localhost:8080/",
		"/":         "http://localhost:8080/",
		"/login":    "http://localhost:8080/login",
		"view_cart": "http://localhost:8080/view_cart",
	}
	for path, want := range tests {
		if got := cfg.URL(path); got != want {
			t.Errorf("URL(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSiteConfig_HasCredentials(t *testing.T) {
	cfg := &SiteConfig{LoginEmail: "a@b.c"}
	if cfg.HasCredentials() {
		t.Error("expected no credentials without password")
	}
	cfg.LoginPassword = "secret"
	if !cfg.HasCredentials() {
		t.Error("expected credentials")
	}
}

func TestLoadBrowserConfig(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantEngine   string
		wantHeadless bool
		wantSlowMo   time.Duration
	}{
		{
			name:         "defaults",
			env:          map[string]string{},
			wantEngine:   BrowserChromium,
			wantHeadless: true,
		},
		{
			name:         "headed firefox with slow motion",
			env:          map[string]string{"BROWSER": "Firefox", "HEADLESS": "false", "SLOW_MO": "250ms"},
			wantEngine:   BrowserFirefox,
			wantHeadless: false,
			wantSlowMo:   250 * time.Millisecond,
		},
		{
			name:    "unknown engine",
			env:     map[string]string{"BROWSER": "netscape"},
			wantErr: true,
		},
		{
			name:    "bad headless",
			env:     map[string]string{"HEADLESS": "maybe"},
			wantErr: true,
		},
		{
			name:    "bad slow mo",
			env:     map[string]string{"SLOW_MO": "slow"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadBrowserConfig(envMap(tt.env))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Engine != tt.wantEngine || cfg.Headless != tt.wantHeadless || cfg.SlowMo != tt.wantSlowMo {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestLoadServerConfig(t *testing.T) {
	cfg := LoadServerConfig(envMap(map[string]string{}))
	if cfg.Port != "8080" || !cfg.ConsentPopup {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.DemoEmail == "" || cfg.DemoPassword == "" || cfg.DemoName == "" {
		t.Errorf("demo account defaults missing: %+v", cfg)
	}

	cfg = LoadServerConfig(envMap(map[string]string{"PORT": "9090", "CONSENT_POPUP": "false"}))
	if cfg.Port != "9090" || cfg.ConsentPopup {
		t.Errorf("unexpected overrides %+v", cfg)
	}
}

func TestLoadPostgresConfig(t *testing.T) {
	full := map[string]string{
		"POSTGRES_USER":     "shop",
		"POSTGRES_PASSWORD": "secret",
		"POSTGRES_DB":       "audits",
		"POSTGRES_HOSTNAME": "db",
	}

	cfg, err := LoadPostgresConfig(envMap(full))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "host=db port=5432 user=shop password=secret dbname=audits sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOSTNAME"} {
		t.Run("missing "+key, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range full {
				if k != key {
					env[k] = v
				}
			}
			_, err := LoadPostgresConfig(envMap(env))
			if err == nil || !strings.Contains(err.Error(), key+" is required") {
				t.Errorf("expected %s is required, got %v", key, err)
			}
		})
	}
}
