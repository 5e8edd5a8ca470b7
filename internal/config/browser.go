package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Supported browser engines
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// BrowserConfig holds the browser launch configuration
type BrowserConfig struct {
	Engine        string
	Headless      bool
	SlowMo        time.Duration
	ScreenshotDir string
}

// LoadBrowserConfig loads browser configuration from environment variables
func LoadBrowserConfig(getenv func(string) string) (*BrowserConfig, error) {
	config := &BrowserConfig{
		Engine:        strings.ToLower(strings.TrimSpace(getenv("BROWSER"))),
		Headless:      true,
		ScreenshotDir: getenv("SCREENSHOT_DIR"),
	}

	if config.Engine == "" {
		config.Engine = BrowserChromium // Default to Chromium
	}
	switch config.Engine {
	case BrowserChromium, BrowserFirefox, BrowserWebKit:
	default:
		return nil, fmt.Errorf("unsupported BROWSER %q", config.Engine)
	}

	if raw := getenv("HEADLESS"); raw != "" {
		headless, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HEADLESS %q: %w", raw, err)
		}
		config.Headless = headless
	}

	if raw := getenv("SLOW_MO"); raw != "" {
		slowMo, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SLOW_MO %q: %w", raw, err)
		}
		config.SlowMo = slowMo
	}

	return config, nil
}
