package portal

import (
	"os"
	"time"
)

type Config struct {
	Addr string
	// GatewayURL is the remote auth gateway; empty runs the placeholder
	// gateway in process.
	GatewayURL      string
	GatewayTimeout  time.Duration
	SecureCookies   bool
	FormInstanceTTL time.Duration
	// DemoPassword seeds demo accounts into the in-process gateway when set.
	DemoPassword string
}

// ConfigFromEnv reads PORTAL_ADDR, GATEWAY_URL, GATEWAY_TIMEOUT,
// SECURE_COOKIES, FORM_INSTANCE_TTL and DEMO_PASSWORD.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:            os.Getenv("PORTAL_ADDR"),
		GatewayURL:      os.Getenv("GATEWAY_URL"),
		GatewayTimeout:  10 * time.Second,
		SecureCookies:   os.Getenv("SECURE_COOKIES") == "1" || os.Getenv("SECURE_COOKIES") == "true",
		FormInstanceTTL: 30 * time.Minute,
		DemoPassword:    os.Getenv("DEMO_PASSWORD"),
	}
	if cfg.Addr == "" {
		cfg.Addr = "0.0.0.0:8430"
	}
	if d, err := time.ParseDuration(os.Getenv("GATEWAY_TIMEOUT")); err == nil && d > 0 {
		cfg.GatewayTimeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("FORM_INSTANCE_TTL")); err == nil && d > 0 {
		cfg.FormInstanceTTL = d
	}
	return cfg
}
