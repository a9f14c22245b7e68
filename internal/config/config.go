package config

import (
	"time"
)

// Defaults.
const (
	DefaultTokenHeader  = "X-Xsrf-Token"
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 15 * time.Second
	DefaultDownloadDir  = "."
	DefaultS3Region     = "us-east-1"
)

// Config holds the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Poll        PollConfig        `yaml:"poll"`
	Download    DownloadConfig    `yaml:"download"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig locates the coordinator.
type ServerConfig struct {
	URL         string        `yaml:"url"`
	TokenHeader string        `yaml:"token_header"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CredentialsConfig is used to log in at the start of each command.
type CredentialsConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// PollConfig tunes the build job poller.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DownloadConfig controls where downloads are saved.
type DownloadConfig struct {
	Dir string `yaml:"dir"`
}

// ArtifactsConfig is the optional S3 mirror for downloads. It is enabled
// when Bucket is set.
type ArtifactsConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// Enabled reports whether downloads are mirrored.
func (a ArtifactsConfig) Enabled() bool {
	return a.Bucket != ""
}

// MetricsConfig exposes Prometheus metrics from long-running commands.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration holding only defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.TokenHeader == "" {
		c.Server.TokenHeader = DefaultTokenHeader
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = DefaultTimeout
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = DefaultPollInterval
	}
	if c.Download.Dir == "" {
		c.Download.Dir = DefaultDownloadDir
	}
	if c.Artifacts.Enabled() && c.Artifacts.Region == "" {
		c.Artifacts.Region = DefaultS3Region
	}
}
