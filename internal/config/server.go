package config

import (
	"strconv"
)

// ServerConfig holds demo storefront server configuration
type ServerConfig struct {
	Port         string
	ConsentPopup bool
	DemoEmail    string
	DemoPassword string
	DemoName     string
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "8080" // Default to port 8080
	}

	consent := true
	if raw := getenv("CONSENT_POPUP"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			consent = parsed
		}
	}

	config := ServerConfig{
		Port:         port,
		ConsentPopup: consent,
		DemoEmail:    getenv("DEMO_EMAIL"),
		DemoPassword: getenv("DEMO_PASSWORD"),
		DemoName:     getenv("DEMO_NAME"),
	}
	if config.DemoEmail == "" {
		config.DemoEmail = "demo@shopcheck.test"
	}
	if config.DemoPassword == "" {
		config.DemoPassword = "demo-password"
	}
	if config.DemoName == "" {
		config.DemoName = "Demo Shopper"
	}
	return config
}
