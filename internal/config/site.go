package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultWikiURL is the reference wiki page driven by the main page object
const DefaultWikiURL = "https://en.wikipedia.org/wiki/Main_Page"

// DefaultTimeout bounds every visibility and URL assertion unless TIMEOUT overrides it
const DefaultTimeout = 5 * time.Second

// SiteConfig holds the target site configuration
type SiteConfig struct {
	Address       string
	WikiURL       string
	Timeout       time.Duration
	LoginEmail    string
	LoginPassword string
}

// LoadSiteConfig loads the target site configuration from environment variables
func LoadSiteConfig(getenv func(string) string) (*SiteConfig, error) {
	config := &SiteConfig{
		Address:       strings.TrimRight(strings.TrimSpace(getenv("ADDRESS")), "/"),
		WikiURL:       getenv("WIKI_URL"),
		Timeout:       DefaultTimeout,
		LoginEmail:    getenv("LOGIN_EMAIL"),
		LoginPassword: getenv("LOGIN_PASSWORD"),
	}

	// Validate required fields
	if config.Address == "" {
		return nil, fmt.Errorf("ADDRESS is required")
	}
	parsed, err := url.Parse(config.Address)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("ADDRESS must be an absolute URL, got %q", config.Address)
	}

	if config.WikiURL == "" {
		config.WikiURL = DefaultWikiURL
	}

	if raw := getenv("TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEOUT %q: %w", raw, err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("TIMEOUT must be positive")
		}
		config.Timeout = timeout
	}

	return config, nil
}

// URL joins a site path onto the configured address
func (c *SiteConfig) URL(path string) string {
	if path == "" {
		return c.Address + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.Address + path
}

// HasCredentials reports whether login credentials were configured
func (c *SiteConfig) HasCredentials() bool {
	return c.LoginEmail != "" && c.LoginPassword != ""
}
