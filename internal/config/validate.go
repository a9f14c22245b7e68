package config

import (
	"fmt"
	"net/url"
	"time"
)

// MinPollInterval keeps the poller from hammering the server.
const MinPollInterval = time.Second

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required (or set %s)", EnvServerURL)
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url must include a host")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Poll.Interval < MinPollInterval {
		return fmt.Errorf("poll.interval must be at least %s, got %s", MinPollInterval, c.Poll.Interval)
	}
	if c.Credentials.Password != "" && c.Credentials.Email == "" {
		return fmt.Errorf("credentials.email is required when a password is set")
	}
	if c.Artifacts.Enabled() && (c.Artifacts.AccessKey == "") != (c.Artifacts.SecretKey == "") {
		return fmt.Errorf("artifacts.access_key and artifacts.secret_key must be set together")
	}
	return nil
}
