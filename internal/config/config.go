package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/spf13/viper"
)

// DefaultEndpoint is the public Tencent Git API root.
const DefaultEndpoint = "https://git.code.tencent.com/api/v3/"

type Config struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Token          string        `mapstructure:"token"`
	GitAuthor      string        `mapstructure:"git_author"`
	HostRules      HostRules     `mapstructure:"host_rules"`
	CacheDir       string        `mapstructure:"cache_dir"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheSize      int           `mapstructure:"cache_size"`
	IgnorePrAuthor bool          `mapstructure:"ignore_pr_author"`
	LogLevel       string        `mapstructure:"log_level"`
	RetryCount     uint64        `mapstructure:"retry_count"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	ServerVersion  string        `mapstructure:"server_version"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Endpoint:      DefaultEndpoint,
		CacheSize:     1000,
		LogLevel:      "info",
		RetryCount:    3,
		RetryDelay:    time.Second,
		ServerVersion: domain.DefaultServerVersion,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := ValidateEndpoint(c.Endpoint); err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if c.Token != "" {
		if err := ValidateToken(c.Token); err != nil {
			return fmt.Errorf("invalid token: %w", err)
		}
	}
	for i, rule := range c.HostRules {
		if strings.TrimSpace(rule.Host) == "" {
			return fmt.Errorf("host_rules[%d]: host cannot be empty", i)
		}
		if err := ValidateToken(rule.Token); err != nil {
			return fmt.Errorf("host_rules[%d]: invalid token: %w", i, err)
		}
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl cannot be negative")
	}
	if strings.Contains(c.CacheDir, "..") {
		return fmt.Errorf("cache_dir contains invalid path traversal")
	}
	if _, err := domain.NewVersion(c.ServerVersion); err != nil {
		return fmt.Errorf("invalid server_version %q: %w", c.ServerVersion, err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// ValidateForPlatformOperations validates that a token is present for operations that require it
func (c *Config) ValidateForPlatformOperations() error {
	if c.Token == "" {
		return fmt.Errorf("token is required for Tencent Git platform operations")
	}
	return c.Validate()
}

// Credentials returns the host rules with the default token bound to the endpoint host.
func (c *Config) Credentials() HostRules {
	rules := append(HostRules{}, c.HostRules...)
	if c.Token == "" {
		return rules
	}
	if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
		rules = append(rules, HostRule{Host: u.Host, Token: c.Token})
	}
	return rules
}

// ValidateEndpoint checks that the endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// ValidateToken validates personal access token format (exported for reuse)
func ValidateToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if len(token) < 8 {
		return fmt.Errorf("token too short: expected at least 8 characters")
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("token contains whitespace")
	}
	return nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".tgit")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	// Configure environment variables
	viper.SetEnvPrefix("TGIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv allows multiple env vars - it will check them in order
	if err := viper.BindEnv("token", "TGIT_TOKEN", "RENOVATE_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}
	if err := viper.BindEnv("endpoint", "TGIT_ENDPOINT", "RENOVATE_ENDPOINT"); err != nil {
		return nil, fmt.Errorf("failed to bind endpoint env: %w", err)
	}
	if err := viper.BindEnv("git_author", "TGIT_GIT_AUTHOR", "RENOVATE_GIT_AUTHOR"); err != nil {
		return nil, fmt.Errorf("failed to bind git_author env: %w", err)
	}
	defaults := DefaultConfig()
	viper.SetDefault("endpoint", defaults.Endpoint)
	viper.SetDefault("cache_size", defaults.CacheSize)
	viper.SetDefault("log_level", defaults.LogLevel)
	viper.SetDefault("retry_count", defaults.RetryCount)
	viper.SetDefault("retry_delay", defaults.RetryDelay)
	viper.SetDefault("server_version", defaults.ServerVersion)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.Endpoint = EnsureTrailingSlash(config.Endpoint)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// EnsureTrailingSlash appends "/" unless already present.
func EnsureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
