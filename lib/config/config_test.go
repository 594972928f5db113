// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
	if cfg.Timeouts.Claim != 3*time.Minute {
		t.Errorf("timeouts.claim = %v, want 3m", cfg.Timeouts.Claim)
	}
	if cfg.Timeouts.Selection != time.Minute {
		t.Errorf("timeouts.selection = %v, want 1m", cfg.Timeouts.Selection)
	}
	if cfg.Paging.GroupSize != 25 || cfg.Paging.GroupsPerPage != 4 {
		t.Errorf("paging = %+v, want 25x4", cfg.Paging)
	}

	var names []string
	for _, category := range cfg.Catalog.Categories {
		names = append(names, category.Name)
	}
	want := []string{"Hat", "Top", "Bottom", "Accessory", "Vest", "Belt"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("default categories mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_RequiresSharebotConfig(t *testing.T) {
	t.Setenv("SHAREBOT_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when SHAREBOT_CONFIG is not set")
	}
	if !strings.HasPrefix(err.Error(), "SHAREBOT_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithSharebotConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharebot.yaml")
	content := `
environment: production
matrix:
  homeserver_url: https://matrix.example.org
  user_id: "@sharebot:example.org"
  rooms: ["!trading:example.org"]
storage:
  backend: sqlite
  path: /var/lib/sharebot/wants.db
timeouts:
  claim: 90s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("SHAREBOT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matrix.HomeserverURL != "https://matrix.example.org" {
		t.Errorf("homeserver_url = %q", cfg.Matrix.HomeserverURL)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("storage.backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Timeouts.Claim != 90*time.Second {
		t.Errorf("timeouts.claim = %v, want 90s", cfg.Timeouts.Claim)
	}
	if cfg.Timeouts.Erasure != time.Minute {
		t.Errorf("timeouts.erasure = %v, default lost", cfg.Timeouts.Erasure)
	}
	// Production without an explicit section logs JSON.
	if cfg.Logging.Format != "json" {
		t.Errorf("logging.format = %q, want json in production", cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParse_JSONC(t *testing.T) {
	content := `{
	// the bot account
	"matrix": {
		"homeserver_url": "https://matrix.example.org",
		"user_id": "@sharebot:example.org",
	},
	"catalog": {
		"categories": [
			{"name": "Hat", "key": "hat", "items": ["Red Hat", "Blue Hat"]},
		],
	},
}`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Matrix.UserID != "@sharebot:example.org" {
		t.Errorf("user_id = %q", cfg.Matrix.UserID)
	}
	want := []CategoryConfig{{Name: "Hat", Key: "hat", Items: []string{"Red Hat", "Blue Hat"}}}
	if diff := cmp.Diff(want, cfg.Catalog.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	content := `
environment: development
storage:
  backend: sqlite
  path: /var/lib/sharebot/wants.db
logging:
  level: info
development:
  storage:
    backend: memory
  logging:
    level: debug
production:
  storage:
    path: /never/applied
`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("storage.backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "/var/lib/sharebot/wants.db" {
		t.Errorf("storage.path = %q, base value should survive an empty override", cfg.Storage.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("SHAREBOT_TEST_DATA", "/srv/sharebot")

	tests := []struct {
		input string
		vars  map[string]string
		want  string
	}{
		{input: "${HOME}/wants", vars: map[string]string{"HOME": "/home/bot"}, want: "/home/bot/wants"},
		{input: "${SHAREBOT_TEST_DATA}/wants.db", want: "/srv/sharebot/wants.db"},
		{input: "${SHAREBOT_TEST_UNSET:-/tmp}/wants", want: "/tmp/wants"},
		{input: "${SHAREBOT_TEST_UNSET}/wants", want: "/wants"},
		{input: "no variables", want: "no variables"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := expandVars(test.input, test.vars); got != test.want {
				t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Matrix.HomeserverURL = "https://matrix.example.org"
		cfg.Matrix.UserID = "@sharebot:example.org"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"missing homeserver", func(c *Config) { c.Matrix.HomeserverURL = "" }, "matrix.homeserver_url is required"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend must be one of"},
		{"missing path", func(c *Config) { c.Storage.Path = "" }, "storage.path is required"},
		{"memory needs no path", func(c *Config) { c.Storage.Backend = BackendMemory; c.Storage.Path = "" }, ""},
		{"no categories", func(c *Config) { c.Catalog.Categories = nil }, "at least one category"},
		{"duplicate key", func(c *Config) { c.Catalog.Categories[1].Key = "0" }, `key "0" is duplicated`},
		{"zero claim timeout", func(c *Config) { c.Timeouts.Claim = 0 }, "timeouts.claim must be positive"},
		{"oversized group", func(c *Config) { c.Paging.GroupSize = 26 }, "paging.group_size"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, test.want)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Paging.GroupsPerPage = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, fragment := range []string{"matrix.homeserver_url", "matrix.user_id", "paging.groups_per_page"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %s", err, fragment)
		}
	}
}

func TestAccessToken(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(tokenPath, []byte("syt_from_file\n"), 0o600); err != nil {
		t.Fatalf("writing token: %v", err)
	}
	cfg := Default()
	cfg.Matrix.AccessTokenFile = tokenPath

	t.Run("file", func(t *testing.T) {
		t.Setenv("SHAREBOT_MATRIX_ACCESS_TOKEN", "")
		token, err := cfg.AccessToken()
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		defer token.Close()
		if token.String() != "syt_from_file" {
			t.Errorf("token = %q", token.String())
		}
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("SHAREBOT_MATRIX_ACCESS_TOKEN", "syt_from_env")
		token, err := cfg.AccessToken()
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		defer token.Close()
		if token.String() != "syt_from_env" {
			t.Errorf("token = %q", token.String())
		}
	})
}
