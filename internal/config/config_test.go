package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Settings.PageSize != 10 {
		t.Errorf("PageSize = %d, want default 10", cfg.Settings.PageSize)
	}
	if len(cfg.Accounts) != 0 {
		t.Errorf("expected no accounts, got %d", len(cfg.Accounts))
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	cfg := &AppConfig{
		Accounts: []AccountConfig{{Address: "user@gmail.com"}},
		Settings: Settings{IdleTimeoutSec: 900, ConnectTimeoutSec: 10, PageSize: 25},
	}
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(loaded.Accounts) != 1 || loaded.Accounts[0].Address != "user@gmail.com" {
		t.Fatalf("unexpected accounts: %+v", loaded.Accounts)
	}
	if loaded.Accounts[0].IMAPHost != "imap.gmail.com" {
		t.Errorf("AutoHost did not fill IMAPHost: %+v", loaded.Accounts[0])
	}
	if loaded.Settings.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", loaded.Settings.PageSize)
	}
}

func TestAutoHostLeavesExplicitHostsAlone(t *testing.T) {
	a := AccountConfig{Address: "user@gmail.com", IMAPHost: "custom.example.com", SMTPHost: "custom-smtp.example.com"}
	AutoHost(&a)
	if a.IMAPHost != "custom.example.com" {
		t.Errorf("AutoHost overwrote explicit IMAPHost: %q", a.IMAPHost)
	}
}

func TestAutoHostUnknownDomainNoOp(t *testing.T) {
	a := AccountConfig{Address: "user@unknown-provider.example"}
	AutoHost(&a)
	if a.IMAPHost != "" {
		t.Errorf("expected no host fill for unknown domain, got %q", a.IMAPHost)
	}
}
