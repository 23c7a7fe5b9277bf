package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Driver != "sqlite" {
			t.Errorf("expected database driver sqlite, got %s", config.Database.Driver)
		}

		if config.Database.Path != "./plst.db" {
			t.Errorf("expected database path ./plst.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Server.ReadTimeout.Duration != 15*time.Second {
			t.Errorf("expected read timeout 15s, got %v", config.Server.ReadTimeout)
		}

		if config.Store.MaxRetries != 3 {
			t.Errorf("expected 3 store retries, got %d", config.Store.MaxRetries)
		}

		if config.Catalog.Mode != "local" {
			t.Errorf("expected local catalog, got %s", config.Catalog.Mode)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20

[server]
host = "0.0.0.0"
port = 8080
write_timeout = "1m"

[catalog]
mode = "remote"
base_url = "https://catalog.example.com"

[store]
max_retries = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Database.MaxIdleConns != 5 {
			t.Errorf("expected unset max_idle_conns to keep default 5, got %d", config.Database.MaxIdleConns)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Server.WriteTimeout.Duration != time.Minute {
			t.Errorf("expected write timeout 1m, got %v", config.Server.WriteTimeout)
		}

		if config.Catalog.Mode != "remote" || config.Store.MaxRetries != 5 {
			t.Errorf("unexpected catalog/store settings: %+v %+v", config.Catalog, config.Store)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig bad duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server]\nread_timeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for bad duration")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "memory driver needs no path", mutate: func(c *Config) { c.Database.Driver = "memory"; c.Database.Path = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "database.driver"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "remote catalog without url", mutate: func(c *Config) { c.Catalog.Mode = "remote"; c.Catalog.BaseURL = "" }, wantErr: "catalog.base_url"},
		{name: "unknown catalog mode", mutate: func(c *Config) { c.Catalog.Mode = "spotify" }, wantErr: "catalog.mode"},
		{name: "negative retries", mutate: func(c *Config) { c.Store.MaxRetries = -1 }, wantErr: "store.max_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
