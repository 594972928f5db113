// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/sharebot/sharebot/lib/secret"
)

// Environment is the deployment type.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Storage backends accepted by storage.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config is the complete bot configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Matrix   MatrixConfig   `yaml:"matrix"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Paging   PagingConfig   `yaml:"paging"`
	Logging  LoggingConfig  `yaml:"logging"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment fields. Empty values leave the base
// configuration untouched.
type Overrides struct {
	Matrix  *MatrixConfig  `yaml:"matrix,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// MatrixConfig identifies the bot account and where it listens.
type MatrixConfig struct {
	HomeserverURL string `yaml:"homeserver_url"`
	UserID        string `yaml:"user_id"`

	// AccessTokenFile holds the bot's access token, one line. Ignored
	// when SHAREBOT_MATRIX_ACCESS_TOKEN is set.
	AccessTokenFile string `yaml:"access_token_file"`

	// CommandPrefix starts every command message. Default "!".
	CommandPrefix string `yaml:"command_prefix"`

	// Rooms are joined at startup. Invites to other rooms are accepted
	// as they arrive.
	Rooms []string `yaml:"rooms"`
}

// StorageConfig selects the want-store backend.
type StorageConfig struct {
	// Backend is one of file, sqlite, bolt, memory.
	Backend string `yaml:"backend"`

	// Path is a directory for the file backend and a database file for
	// sqlite and bolt.
	Path string `yaml:"path"`
}

// CatalogConfig lists the item categories, in display order.
type CatalogConfig struct {
	// Directory holds the category files.
	Directory string `yaml:"directory"`

	Categories []CategoryConfig `yaml:"categories"`
}

// CategoryConfig is one row of the category table. Items are read from
// File (relative to the catalog directory) and merged with Items.
type CategoryConfig struct {
	Name  string   `yaml:"name"`
	Key   string   `yaml:"key"`
	File  string   `yaml:"file"`
	Items []string `yaml:"items"`
}

// TimeoutsConfig bounds each prompt wait.
type TimeoutsConfig struct {
	Selection time.Duration `yaml:"selection"`
	Claim     time.Duration `yaml:"claim"`
	Erasure   time.Duration `yaml:"erasure"`
}

// PagingConfig shapes the item chooser.
type PagingConfig struct {
	GroupSize     int `yaml:"group_size"`
	GroupsPerPage int `yaml:"groups_per_page"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// environmentVariables are the only values read from the process
// environment.
type environmentVariables struct {
	ConfigPath  string `env:"SHAREBOT_CONFIG"`
	AccessToken string `env:"SHAREBOT_MATRIX_ACCESS_TOKEN"`
}

// Default returns the base configuration that a loaded file is merged
// onto. The categories match the original cosmetic set.
func Default() *Config {
	return &Config{
		Environment: Development,
		Matrix: MatrixConfig{
			AccessTokenFile: "token.txt",
			CommandPrefix:   "!",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    "database",
		},
		Catalog: CatalogConfig{
			Directory: "cosmetics",
			Categories: []CategoryConfig{
				{Name: "Hat", Key: "0", File: "Hat.txt"},
				{Name: "Top", Key: "1", File: "Top.txt"},
				{Name: "Bottom", Key: "2", File: "Bottom.txt"},
				{Name: "Accessory", Key: "3", File: "Accessory.txt"},
				{Name: "Vest", Key: "4", File: "Vest.txt"},
				{Name: "Belt", Key: "5", File: "Belt.txt"},
			},
		},
		Timeouts: TimeoutsConfig{
			Selection: time.Minute,
			Claim:     3 * time.Minute,
			Erasure:   time.Minute,
		},
		Paging: PagingConfig{
			GroupSize:     25,
			GroupsPerPage: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file named by SHAREBOT_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	variables, err := env.ParseAs[environmentVariables]()
	if err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	if variables.ConfigPath == "" {
		return nil, fmt.Errorf("SHAREBOT_CONFIG environment variable not set; " +
			"set it to the path of your sharebot.yaml, or use --config")
	}
	return LoadFile(variables.ConfigPath)
}

// LoadFile reads and merges one configuration file over Default, then
// applies environment overrides and variable expansion. It does not
// validate; call Validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFile for in-memory content.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	// A JSON document is YAML once comments and trailing commas are gone.
	// YAML input is left alone: unquoted URLs contain "//".
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Logging: &LoggingConfig{Format: "json"}}
		}
	}
	if overrides == nil {
		return
	}

	if matrix := overrides.Matrix; matrix != nil {
		setIfNonEmpty(&c.Matrix.HomeserverURL, matrix.HomeserverURL)
		setIfNonEmpty(&c.Matrix.UserID, matrix.UserID)
		setIfNonEmpty(&c.Matrix.AccessTokenFile, matrix.AccessTokenFile)
		setIfNonEmpty(&c.Matrix.CommandPrefix, matrix.CommandPrefix)
		if len(matrix.Rooms) > 0 {
			c.Matrix.Rooms = matrix.Rooms
		}
	}
	if storage := overrides.Storage; storage != nil {
		setIfNonEmpty(&c.Storage.Backend, storage.Backend)
		setIfNonEmpty(&c.Storage.Path, storage.Path)
	}
	if logging := overrides.Logging; logging != nil {
		setIfNonEmpty(&c.Logging.Level, logging.Level)
		setIfNonEmpty(&c.Logging.Format, logging.Format)
	}
}

func setIfNonEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.Matrix.AccessTokenFile = expandVars(c.Matrix.AccessTokenFile, vars)
	c.Storage.Path = expandVars(c.Storage.Path, vars)
	c.Catalog.Directory = expandVars(c.Catalog.Directory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default}. Provided vars win over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, errors.New("matrix.homeserver_url is required"))
	}
	if c.Matrix.UserID == "" {
		errs = append(errs, errors.New("matrix.user_id is required"))
	}
	if c.Matrix.CommandPrefix == "" {
		errs = append(errs, errors.New("matrix.command_prefix must not be empty"))
	}

	backends := []string{BackendFile, BackendSQLite, BackendBolt, BackendMemory}
	if !slices.Contains(backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend must be one of: %v", backends))
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend))
	}

	if len(c.Catalog.Categories) == 0 {
		errs = append(errs, errors.New("catalog.categories must list at least one category"))
	}
	seenKeys := make(map[string]bool)
	for index, category := range c.Catalog.Categories {
		if category.Name == "" {
			errs = append(errs, fmt.Errorf("catalog.categories[%d].name is required", index))
		}
		if category.Key == "" {
			errs = append(errs, fmt.Errorf("catalog.categories[%d].key is required", index))
		} else if seenKeys[category.Key] {
			errs = append(errs, fmt.Errorf("catalog.categories[%d].key %q is duplicated", index, category.Key))
		}
		seenKeys[category.Key] = true
		if category.File == "" && len(category.Items) == 0 {
			errs = append(errs, fmt.Errorf("catalog.categories[%d] needs a file or inline items", index))
		}
	}

	for name, timeout := range map[string]time.Duration{
		"timeouts.selection": c.Timeouts.Selection,
		"timeouts.claim":     c.Timeouts.Claim,
		"timeouts.erasure":   c.Timeouts.Erasure,
	} {
		if timeout <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, timeout))
		}
	}

	if c.Paging.GroupSize <= 0 || c.Paging.GroupSize > 25 {
		errs = append(errs, fmt.Errorf("paging.group_size must be between 1 and 25, got %d", c.Paging.GroupSize))
	}
	if c.Paging.GroupsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("paging.groups_per_page must be positive, got %d", c.Paging.GroupsPerPage))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// AccessToken returns the Matrix access token in locked memory. The
// environment variable takes precedence over the token file. The caller
// closes the buffer.
func (c *Config) AccessToken() (*secret.Buffer, error) {
	variables, err := env.ParseAs[environmentVariables]()
	if err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	if variables.AccessToken != "" {
		return secret.FromString(variables.AccessToken)
	}
	if c.Matrix.AccessTokenFile == "" {
		return nil, errors.New("config: no access token: set SHAREBOT_MATRIX_ACCESS_TOKEN or matrix.access_token_file")
	}
	return secret.ReadFromPath(c.Matrix.AccessTokenFile)
}
