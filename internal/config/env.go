package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables overriding the config file.
const (
	EnvServerURL    = "ASCTL_SERVER_URL"
	EnvTokenHeader  = "ASCTL_TOKEN_HEADER"
	EnvTimeout      = "ASCTL_TIMEOUT"
	EnvPollInterval = "ASCTL_POLL_INTERVAL"
	EnvEmail        = "ASCTL_EMAIL"
	EnvPassword     = "ASCTL_PASSWORD"
	EnvDownloadDir  = "ASCTL_DOWNLOAD_DIR"
	EnvS3Endpoint   = "ASCTL_S3_ENDPOINT"
	EnvS3Region     = "ASCTL_S3_REGION"
	EnvS3Bucket     = "ASCTL_S3_BUCKET"
	EnvS3Prefix     = "ASCTL_S3_PREFIX"
	EnvS3AccessKey  = "ASCTL_S3_ACCESS_KEY"
	EnvS3SecretKey  = "ASCTL_S3_SECRET_KEY"
	EnvS3PathStyle  = "ASCTL_S3_PATH_STYLE"
	EnvMetricsAddr  = "ASCTL_METRICS_ADDR"
)

func applyEnv(c *Config) {
	setString(&c.Server.URL, EnvServerURL)
	setString(&c.Server.TokenHeader, EnvTokenHeader)
	c.Server.Timeout = parseDuration(EnvTimeout, c.Server.Timeout)
	c.Poll.Interval = parseDuration(EnvPollInterval, c.Poll.Interval)
	setString(&c.Credentials.Email, EnvEmail)
	setString(&c.Credentials.Password, EnvPassword)
	setString(&c.Download.Dir, EnvDownloadDir)
	setString(&c.Artifacts.Endpoint, EnvS3Endpoint)
	setString(&c.Artifacts.Region, EnvS3Region)
	setString(&c.Artifacts.Bucket, EnvS3Bucket)
	setString(&c.Artifacts.Prefix, EnvS3Prefix)
	setString(&c.Artifacts.AccessKey, EnvS3AccessKey)
	setString(&c.Artifacts.SecretKey, EnvS3SecretKey)
	c.Artifacts.PathStyle = parseBool(EnvS3PathStyle, c.Artifacts.PathStyle)
	setString(&c.Metrics.Addr, EnvMetricsAddr)
}

func setString(dst *string, envVar string) {
	if val := os.Getenv(envVar); val != "" {
		*dst = val
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the current value is kept.
func parseDuration(envVar string, current time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return current
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return current
	}
	return d
}

func parseBool(envVar string, current bool) bool {
	val := os.Getenv(envVar)
	if val == "" {
		return current
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return current
	}
	return b
}
