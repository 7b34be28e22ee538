package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
smtp:
  host: "smtp.test.com"
  port: 587
  encryption: "starttls"
  username: "sender@test.com"
  password: "secret"

campaign:
  from_name: "Acme Newsletter"
  from_email: "news@test.com"
  subject: "Weekly update"
  reply_to: "replies@test.com"
  template_path: "templates/weekly.html"
  rate_per_minute: 12
  preview_dir: "previews"

dkim:
  enabled: true
  domain: "test.com"
  selector: "mail"
  key_file: "/etc/blast/dkim.key"

suppression:
  path: "/tmp/suppress.db"

logging:
  level: "debug"
  format: "json"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Host != "smtp.test.com" {
		t.Errorf("SMTP.Host = %v, want smtp.test.com", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %v, want 587", cfg.SMTP.Port)
	}
	if cfg.SMTP.Encryption != "starttls" {
		t.Errorf("SMTP.Encryption = %v, want starttls", cfg.SMTP.Encryption)
	}
	if cfg.Campaign.FromName != "Acme Newsletter" {
		t.Errorf("Campaign.FromName = %v, want Acme Newsletter", cfg.Campaign.FromName)
	}
	if cfg.Campaign.RatePerMinute != 12 {
		t.Errorf("Campaign.RatePerMinute = %v, want 12", cfg.Campaign.RatePerMinute)
	}
	if !cfg.DKIM.Enabled {
		t.Error("DKIM.Enabled = false, want true")
	}
	if cfg.DKIM.Selector != "mail" {
		t.Errorf("DKIM.Selector = %v, want mail", cfg.DKIM.Selector)
	}
	if cfg.Suppression.Path != "/tmp/suppress.db" {
		t.Errorf("Suppression.Path = %v, want /tmp/suppress.db", cfg.Suppression.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Host != "smtp.gmail.com" {
		t.Errorf("SMTP.Host = %v, want smtp.gmail.com", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 465 {
		t.Errorf("SMTP.Port = %v, want 465", cfg.SMTP.Port)
	}
	if cfg.SMTP.Encryption != "tls" {
		t.Errorf("SMTP.Encryption = %v, want tls", cfg.SMTP.Encryption)
	}
	if cfg.Metrics.ListenAddr != ":9091" {
		t.Errorf("Metrics.ListenAddr = %v, want :9091", cfg.Metrics.ListenAddr)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %v, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %v, want text", cfg.Logging.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	content := `
smtp:
  host: "smtp.file.com"
  port: 25
  username: "file-user"
  password: "file-pass"
`
	t.Setenv("SMTP_HOST", "smtp.env.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USERNAME", "env-user")
	t.Setenv("SMTP_PASSWORD", "env-pass")
	t.Setenv("RATE_PER_MIN", "30")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Host != "smtp.env.com" {
		t.Errorf("SMTP.Host = %v, want environment to win over file", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP.Port = %v, want 2525", cfg.SMTP.Port)
	}
	if cfg.SMTP.Username != "env-user" || cfg.SMTP.Password != "env-pass" {
		t.Errorf("credentials = %v/%v, want env-user/env-pass", cfg.SMTP.Username, cfg.SMTP.Password)
	}
	if cfg.Campaign.RatePerMinute != 30 {
		t.Errorf("Campaign.RatePerMinute = %v, want 30", cfg.Campaign.RatePerMinute)
	}
}

func TestFromEmailDefaultsToUsername(t *testing.T) {
	content := `
smtp:
  username: "sender@test.com"
  password: "secret"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Campaign.FromEmail != "sender@test.com" {
		t.Errorf("Campaign.FromEmail = %v, want the SMTP username", cfg.Campaign.FromEmail)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad encryption",
			mutate:  func(c *Config) { c.SMTP.Encryption = "ssl" },
			wantErr: "smtp.encryption",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.SMTP.Port = 70000 },
			wantErr: "smtp.port",
		},
		{
			name:    "username without password",
			mutate:  func(c *Config) { c.SMTP.Username = "user"; c.SMTP.Password = "" },
			wantErr: "must be set together",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.Campaign.RatePerMinute = -1 },
			wantErr: "rate_per_minute",
		},
		{
			name:    "dkim enabled without selector",
			mutate:  func(c *Config) { c.DKIM.Enabled = true; c.DKIM.KeyFile = "k.pem" },
			wantErr: "dkim.selector",
		},
		{
			name:    "dkim enabled without key file",
			mutate:  func(c *Config) { c.DKIM.Enabled = true; c.DKIM.Selector = "mail" },
			wantErr: "dkim.key_file",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.setDefaults()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() succeeded for missing file, want error")
	}
}
