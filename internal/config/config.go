// Package config loads and saves the open-mail application's account
// list and runtime settings, adapted from the teacher's
// internal/model/config.go viper-based loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AccountConfig is one configured mailbox account's non-secret fields.
// The credential itself is resolved separately through secret.Store and
// never round-trips through this file.
type AccountConfig struct {
	Address  string `mapstructure:"address" yaml:"address"`
	IMAPHost string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort string `mapstructure:"imap_port" yaml:"imap_port"`
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort string `mapstructure:"smtp_port" yaml:"smtp_port"`
}

// Settings holds runtime preferences unrelated to any single account.
type Settings struct {
	IdleTimeoutSec    int `mapstructure:"idle_timeout_sec" yaml:"idle_timeout_sec"`
	ConnectTimeoutSec int `mapstructure:"connect_timeout_sec" yaml:"connect_timeout_sec"`
	PageSize          int `mapstructure:"page_size" yaml:"page_size"`
}

// AppConfig is the top-level configuration file shape.
type AppConfig struct {
	Accounts []AccountConfig `mapstructure:"accounts" yaml:"accounts"`
	Settings Settings        `mapstructure:"settings" yaml:"settings"`
}

// DefaultConfigPath returns ~/.config/open-mail/accounts.yaml, falling
// back to a relative path if the home directory can't be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "accounts.yaml")
	}
	return filepath.Join(home, ".config", "open-mail", "accounts.yaml")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Accounts: []AccountConfig{},
		Settings: Settings{
			IdleTimeoutSec:    1740, // RFC 9051 §5.5's 30-minute recommendation, minus margin
			ConnectTimeoutSec: 30,
			PageSize:          10,
		},
	}
}

// LoadConfig reads the account/settings file at path. A missing file
// resolves to a default configuration rather than an error, mirroring
// the teacher's "missing file ⇒ default config" behavior.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("settings.idle_timeout_sec", 1740)
	v.SetDefault("settings.connect_timeout_sec", 30)
	v.SetDefault("settings.page_size", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for i := range cfg.Accounts {
		AutoHost(&cfg.Accounts[i])
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed. Marshaling goes through yaml.v3 directly rather than
// viper.WriteConfigAs so the struct tags on AccountConfig/Settings
// control the exact output shape.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// wellKnownProviders maps an address domain to its IMAP/SMTP
// host:port pair, used to fill in an account's connection details when
// left blank in the config file.
var wellKnownProviders = map[string][4]string{
	"gmail.com":   {"imap.gmail.com", "993", "smtp.gmail.com", "587"},
	"outlook.com": {"outlook.office365.com", "993", "smtp-mail.outlook.com", "587"},
	"hotmail.com": {"outlook.office365.com", "993", "smtp-mail.outlook.com", "587"},
	"yahoo.com":   {"imap.mail.yahoo.com", "993", "smtp.mail.yahoo.com", "587"},
	"yandex.com":  {"imap.yandex.com", "993", "smtp.yandex.com", "587"},
}

// AutoHost fills in a's IMAP/SMTP host and port from its address domain
// when left empty, per spec.md §3's "host auto-derived from the address
// domain when absent" rule.
func AutoHost(a *AccountConfig) {
	if a.IMAPHost != "" && a.SMTPHost != "" {
		return
	}
	domain := domainOf(a.Address)
	hosts, ok := wellKnownProviders[domain]
	if !ok {
		return
	}
	if a.IMAPHost == "" {
		a.IMAPHost = hosts[0]
	}
	if a.IMAPPort == "" {
		a.IMAPPort = hosts[1]
	}
	if a.SMTPHost == "" {
		a.SMTPHost = hosts[2]
	}
	if a.SMTPPort == "" {
		a.SMTPPort = hosts[3]
	}
}

func domainOf(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return ""
}
