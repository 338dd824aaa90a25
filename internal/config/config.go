// Package config holds the settings of a guidepost controller: defaults,
// an optional YAML file and GUIDEPOST_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/adapters/journal"
	"github.com/aretw0/guidepost/pkg/adapters/process"
	"github.com/aretw0/guidepost/pkg/domain"
)

type (
	// Config holds the controller settings
	Config struct {
		// Qubes the tutorial observes and marks
		Scope []string `yaml:"scope"`

		// Engine
		TickInterval time.Duration `yaml:"tick_interval"`
		CallTimeout  time.Duration `yaml:"call_timeout"`

		// Watchers
		SettleDelay    time.Duration `yaml:"settle_delay"`
		GuidLogDir     string        `yaml:"guid_log_dir"`
		JournalCommand []string      `yaml:"journal_command"`
		Redis          RedisConfig   `yaml:"redis"`

		// Relay and collaborators
		RelayAddr  string            `yaml:"relay_addr"`
		UIURL      string            `yaml:"ui_url"`
		Extensions []ExtensionConfig `yaml:"extensions"`

		// Local side effects
		Commands         []process.CommandConfig `yaml:"commands"`
		CommandsFile     string                  `yaml:"commands_file"`
		AllowInlineShell bool                    `yaml:"allow_inline_shell"`

		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`

		// Directory of the loaded file, for relative paths
		baseDir string
	}

	// RedisConfig enables the admin event watcher when Addr is set
	RedisConfig struct {
		Addr        string `yaml:"addr"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		Channel     string `yaml:"channel"`
		Prefix      string `yaml:"prefix"`
		FilterScope bool   `yaml:"filter_scope"`
	}

	// ExtensionConfig locates a component serving the extension protocol
	ExtensionConfig struct {
		Name      string   `yaml:"name"`
		Address   string   `yaml:"address"`
		Functions []string `yaml:"functions"`
	}
)

const (
	DefaultTickInterval = 10 * time.Millisecond
	DefaultCallTimeout  = 5 * time.Second
	DefaultSettleDelay  = 100 * time.Millisecond
	DefaultGuidLogDir   = "/var/log/qubes"
	DefaultRelayAddr    = "127.0.0.1:8487"
	DefaultUIURL        = "http://127.0.0.1:8488"
	DefaultRedisChannel = "guidepost:admin-events"
	DefaultRedisPrefix  = "guidepost:"

	MaxTickInterval = time.Second
	MaxCallTimeout  = 5 * time.Minute
	MaxSettleDelay  = 10 * time.Second

	EnvPrefix = "GUIDEPOST_"
)

var (
	ErrInvalidTickInterval = errors.New("tick interval must be positive")
	ErrInvalidCallTimeout  = errors.New("call timeout must be positive")
	ErrInvalidSettleDelay  = errors.New("settle delay cannot be negative")
	ErrMissingRelayAddr    = errors.New("relay address is required")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("log format must be text or json")
	ErrInvalidExtension    = errors.New("invalid extension")
	ErrInvalidScope        = errors.New("invalid scope")
)

// Default creates a configuration with every default filled in
func Default() *Config {
	return &Config{
		TickInterval:   DefaultTickInterval,
		CallTimeout:    DefaultCallTimeout,
		SettleDelay:    DefaultSettleDelay,
		GuidLogDir:     DefaultGuidLogDir,
		JournalCommand: slices.Clone(journal.DefaultCommand),
		Redis: RedisConfig{
			Channel: DefaultRedisChannel,
			Prefix:  DefaultRedisPrefix,
		},
		RelayAddr: DefaultRelayAddr,
		UIURL:     DefaultUIURL,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFile reads path over the defaults. A missing file leaves the defaults
// untouched.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// LoadFromEnv overrides values from GUIDEPOST_* environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if scope := getenv("SCOPE"); scope != "" {
		c.Scope = splitList(scope)
	}
	if dir := getenv("GUID_LOG_DIR"); dir != "" {
		c.GuidLogDir = dir
	}
	if addr := getenv("RELAY_ADDR"); addr != "" {
		c.RelayAddr = addr
	}
	if file := getenv("COMMANDS_FILE"); file != "" {
		c.CommandsFile = file
	}
	if url := getenv("UI_URL"); url != "" {
		c.UIURL = url
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if channel := getenv("REDIS_CHANNEL"); channel != "" {
		c.Redis.Channel = channel
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if format := getenv("LOG_FORMAT"); format != "" {
		c.LogFormat = format
	}

	if err := loadEnvDuration("TICK_INTERVAL", &c.TickInterval); err != nil {
		return err
	}
	if err := loadEnvDuration("CALL_TIMEOUT", &c.CallTimeout); err != nil {
		return err
	}
	if err := loadEnvDuration("SETTLE_DELAY", &c.SettleDelay); err != nil {
		return err
	}
	if err := loadEnvBool("ALLOW_INLINE_SHELL", &c.AllowInlineShell); err != nil {
		return err
	}
	if err := loadEnvBool("REDIS_FILTER_SCOPE", &c.Redis.FilterScope); err != nil {
		return err
	}
	if db := getenv("REDIS_DB"); db != "" {
		v, err := strconv.Atoi(db)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid %sREDIS_DB: %q", EnvPrefix, db)
		}
		c.Redis.DB = v
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.TickInterval <= 0 || c.TickInterval > MaxTickInterval {
		return fmt.Errorf("%w: %s (max %s)", ErrInvalidTickInterval, c.TickInterval, MaxTickInterval)
	}
	if c.CallTimeout <= 0 || c.CallTimeout > MaxCallTimeout {
		return fmt.Errorf("%w: %s (max %s)", ErrInvalidCallTimeout, c.CallTimeout, MaxCallTimeout)
	}
	if c.SettleDelay < 0 || c.SettleDelay > MaxSettleDelay {
		return fmt.Errorf("%w: %s", ErrInvalidSettleDelay, c.SettleDelay)
	}
	if c.RelayAddr == "" {
		return ErrMissingRelayAddr
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, c.LogFormat)
	}

	seen := make(map[string]bool, len(c.Scope))
	for _, r := range c.Scope {
		if r == "" || seen[r] {
			return fmt.Errorf("%w: empty or repeated qube %q", ErrInvalidScope, r)
		}
		seen[r] = true
	}

	names := make(map[string]bool, len(c.Extensions))
	for _, ext := range c.Extensions {
		switch {
		case ext.Name == "":
			return fmt.Errorf("%w: missing name", ErrInvalidExtension)
		case ext.Name == domain.LocalComponent:
			return fmt.Errorf("%w: %q is reserved for local commands", ErrInvalidExtension, ext.Name)
		case ext.Address == "":
			return fmt.Errorf("%w: %s has no address", ErrInvalidExtension, ext.Name)
		case names[ext.Name]:
			return fmt.Errorf("%w: %s declared twice", ErrInvalidExtension, ext.Name)
		}
		names[ext.Name] = true
	}
	return nil
}

// ExtensionAddresses maps extension names to their base URLs.
func (c *Config) ExtensionAddresses() map[string]string {
	addrs := make(map[string]string, len(c.Extensions))
	for _, ext := range c.Extensions {
		addrs[ext.Name] = ext.Address
	}
	return addrs
}

// LoadCommandsFile merges the commands of CommandsFile into Commands.
// Commands declared inline win over file entries with the same name. A
// relative path is taken from the directory of the config file.
func (c *Config) LoadCommandsFile() error {
	if c.CommandsFile == "" {
		return nil
	}
	path := c.CommandsFile
	if !filepath.IsAbs(path) && c.baseDir != "" {
		path = filepath.Join(c.baseDir, path)
	}
	loaded, err := process.LoadCommands(path)
	if err != nil {
		return err
	}
	declared := c.CommandMap()
	for _, name := range slices.Sorted(maps.Keys(loaded)) {
		if _, ok := declared[name]; !ok {
			c.Commands = append(c.Commands, loaded[name])
		}
	}
	return nil
}

// CommandMap indexes the local commands by name.
func (c *Config) CommandMap() map[string]process.CommandConfig {
	cmds := make(map[string]process.CommandConfig, len(c.Commands))
	for _, cmd := range c.Commands {
		if cmd.Name != "" {
			cmds[cmd.Name] = cmd
		}
	}
	return cmds
}

func getenv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadEnvDuration(key string, dst *time.Duration) error {
	s := getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, s)
	}
	*dst = d
	return nil
}

func loadEnvBool(key string, dst *bool) error {
	s := getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, s)
	}
	*dst = v
	return nil
}
