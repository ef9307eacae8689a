// Package config loads Profile Store client settings from an optional config
// file and PROFILES_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PROFILES_APP_KEY.
const EnvPrefix = "PROFILES"

// ErrInvalid reports a missing or empty required property.
var ErrInvalid = errors.New("config: invalid")

// Config holds the client configuration.
type Config struct {
	// BucketName is the Profile Store bucket profiles live in.
	BucketName string `mapstructure:"bucket_name"`
	// AppName is the collect app used for settings and scheduler calls.
	AppName string `mapstructure:"app_name"`
	// AppKey authenticates every request.
	AppKey string `mapstructure:"app_key"`
	// APIURL is the Profile Store API host, without a trailing slash.
	APIURL string `mapstructure:"api_url"`
	// GroupID is the company id. Numbers are accepted and read as strings.
	GroupID string `mapstructure:"group_id"`
	// EvaluationAPIURL overrides APIURL for segment evaluation calls.
	EvaluationAPIURL string `mapstructure:"evaluation_api_url"`
	// SchedulerAPIHost is the task scheduler host.
	SchedulerAPIHost string `mapstructure:"scheduler_api_host"`
	// NoCache disables caching of idempotent reads.
	NoCache bool `mapstructure:"no_cache"`
	// CacheTTL is the lifetime of cached reads, e.g. "60s".
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// CachePath, when set, persists cached reads in a bbolt file.
	CachePath string `mapstructure:"cache_path"`
	// Timeout bounds every HTTP request.
	Timeout time.Duration `mapstructure:"timeout"`
	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level"`
}

var keys = []string{
	"bucket_name",
	"app_name",
	"app_key",
	"api_url",
	"group_id",
	"evaluation_api_url",
	"scheduler_api_host",
	"no_cache",
	"cache_ttl",
	"cache_path",
	"timeout",
	"log_level",
}

// Load reads path (when not empty) and then the environment. Environment
// variables override the file. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %q: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.EvaluationAPIURL = strings.TrimRight(cfg.EvaluationAPIURL, "/")
	cfg.SchedulerAPIHost = strings.TrimRight(cfg.SchedulerAPIHost, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bucket_name", "")
	v.SetDefault("app_name", "")
	v.SetDefault("app_key", "")
	v.SetDefault("api_url", "")
	v.SetDefault("group_id", "")
	v.SetDefault("evaluation_api_url", "")
	v.SetDefault("scheduler_api_host", "")
	v.SetDefault("no_cache", false)
	v.SetDefault("cache_ttl", "60s")
	v.SetDefault("cache_path", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("log_level", "info")
}

// Validate checks the properties every client call needs.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"bucketName", c.BucketName},
		{"appName", c.AppName},
		{"appKey", c.AppKey},
		{"apiUrl", c.APIURL},
		{"groupId", c.GroupID},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: property %q can not be empty", ErrInvalid, field.name)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: property %q can not be negative", ErrInvalid, "cacheTtl")
	}
	return nil
}

// EvaluationURL returns the host used for segment evaluation.
func (c *Config) EvaluationURL() string {
	if c.EvaluationAPIURL != "" {
		return c.EvaluationAPIURL
	}
	return c.APIURL
}
