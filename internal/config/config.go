// Package config loads campaign configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	SMTP        SMTPConfig        `yaml:"smtp"`
	Campaign    CampaignConfig    `yaml:"campaign"`
	DKIM        DKIMConfig        `yaml:"dkim"`
	Suppression SuppressionConfig `yaml:"suppression"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SMTPConfig contains outbound SMTP relay settings
type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Encryption string `yaml:"encryption"` // tls, starttls, none
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
}

// CampaignConfig contains per-campaign defaults, all overridable from
// the command line
type CampaignConfig struct {
	FromName      string  `yaml:"from_name"`
	FromEmail     string  `yaml:"from_email"`
	Subject       string  `yaml:"subject"`
	ReplyTo       string  `yaml:"reply_to"`
	TemplatePath  string  `yaml:"template_path"`
	RatePerMinute float64 `yaml:"rate_per_minute"` // 0 disables pacing
	PreviewDir    string  `yaml:"preview_dir"`
}

// DKIMConfig contains DKIM signing settings
type DKIMConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Domain   string `yaml:"domain"` // Defaults to the sender address domain
	Selector string `yaml:"selector"`
	KeyFile  string `yaml:"key_file"`
}

// SuppressionConfig contains suppression list storage settings
type SuppressionConfig struct {
	Path string `yaml:"path"` // bbolt database file, empty disables suppression
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // Default: :9091
	Path       string `yaml:"path"`        // Default: /metrics
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file, applies environment
// variable overrides, then defaults and validation. An empty path skips
// the file and builds the config from environment and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables. Environment
// wins over the file so deployments can keep credentials out of it.
func (c *Config) applyEnv() error {
	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Encryption, "SMTP_ENCRYPTION")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.Campaign.FromName, "FROM_NAME")
	setString(&c.Campaign.FromEmail, "FROM_EMAIL")
	setString(&c.Campaign.Subject, "SUBJECT")
	setString(&c.Campaign.ReplyTo, "REPLY_TO")
	setString(&c.Campaign.TemplatePath, "TEMPLATE_PATH")
	setString(&c.Campaign.PreviewDir, "PREVIEW_DIR")

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %q", v)
		}
		c.SMTP.Port = port
	}
	if v := os.Getenv("RATE_PER_MIN"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_PER_MIN: %q", v)
		}
		c.Campaign.RatePerMinute = rate
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
	if c.SMTP.Encryption == "" {
		c.SMTP.Encryption = "tls"
	}

	if c.Campaign.FromEmail == "" {
		c.Campaign.FromEmail = c.SMTP.Username
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9091"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validEncryption := map[string]bool{"tls": true, "starttls": true, "none": true}
	if !validEncryption[c.SMTP.Encryption] {
		return fmt.Errorf("invalid smtp.encryption: %s (must be tls, starttls, or none)", c.SMTP.Encryption)
	}

	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp.port: %d", c.SMTP.Port)
	}

	if (c.SMTP.Username == "") != (c.SMTP.Password == "") {
		return fmt.Errorf("smtp.username and smtp.password must be set together")
	}

	if c.Campaign.RatePerMinute < 0 {
		return fmt.Errorf("campaign.rate_per_minute must not be negative")
	}

	if c.DKIM.Enabled {
		if c.DKIM.Selector == "" {
			return fmt.Errorf("dkim.selector is required when DKIM is enabled")
		}
		if c.DKIM.KeyFile == "" {
			return fmt.Errorf("dkim.key_file is required when DKIM is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
