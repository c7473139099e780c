package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/duration"
)

// Config represents the application configuration as stored on disk. Unset
// fields fall back to defaults when resolved into Settings.
type Config struct {
	DefaultFormat     string `yaml:"default_format,omitempty"`
	RefreshInterval   *int   `yaml:"refresh_interval,omitempty"`
	MergedDays        *int   `yaml:"merged_days,omitempty"`
	NotificationHours *int   `yaml:"notification_hours,omitempty"`
	MaxConcurrency    *int   `yaml:"max_concurrency,omitempty"`
	CommandTimeout    string `yaml:"command_timeout,omitempty"`
	GHPath            string `yaml:"gh_path,omitempty"`
	StatePath         string `yaml:"state_path,omitempty"`

	AutoUnmute *AutoUnmuteOverrides `yaml:"auto_unmute,omitempty"`
}

// AutoUnmuteOverrides controls when muted PRs revive.
type AutoUnmuteOverrides struct {
	Enabled      *bool `yaml:"enabled,omitempty"`
	HumansOnly   *bool `yaml:"humans_only,omitempty"`
	MentionsOnly *bool `yaml:"mentions_only,omitempty"`
}

// Settings is the resolved configuration consumed by the watcher.
type Settings struct {
	RefreshInterval   time.Duration
	MergedDays        int
	NotificationHours int
	MaxConcurrency    int
	CommandTimeout    time.Duration
	GHPath            string
	StatePath         string
	AutoUnmute        AutoUnmuteSettings
}

// AutoUnmuteSettings is the resolved auto-unmute policy.
type AutoUnmuteSettings struct {
	Enabled      bool
	HumansOnly   bool
	MentionsOnly bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		RefreshInterval:   constants.DefaultRefreshIntervalMinutes * time.Minute,
		MergedDays:        constants.DefaultMergedDays,
		NotificationHours: constants.DefaultNotificationHours,
		MaxConcurrency:    constants.DefaultMaxConcurrency,
		CommandTimeout:    constants.DefaultCommandTimeout,
		AutoUnmute: AutoUnmuteSettings{
			Enabled:      true,
			HumansOnly:   true,
			MentionsOnly: true,
		},
	}
}

// Settings resolves c against the defaults and validates the result.
func (c *Config) Settings() (Settings, error) {
	s := DefaultSettings()

	if c.RefreshInterval != nil {
		s.RefreshInterval = time.Duration(*c.RefreshInterval) * time.Minute
	}
	if c.MergedDays != nil {
		s.MergedDays = *c.MergedDays
	}
	if c.NotificationHours != nil {
		s.NotificationHours = *c.NotificationHours
	}
	if c.MaxConcurrency != nil {
		s.MaxConcurrency = *c.MaxConcurrency
	}
	if c.CommandTimeout != "" {
		d, err := duration.Parse(c.CommandTimeout)
		if err != nil {
			return s, fmt.Errorf("command_timeout: %w", err)
		}
		s.CommandTimeout = d
	}
	s.GHPath = c.GHPath
	s.StatePath = c.StatePath

	if au := c.AutoUnmute; au != nil {
		if au.Enabled != nil {
			s.AutoUnmute.Enabled = *au.Enabled
		}
		if au.HumansOnly != nil {
			s.AutoUnmute.HumansOnly = *au.HumansOnly
		}
		if au.MentionsOnly != nil {
			s.AutoUnmute.MentionsOnly = *au.MentionsOnly
		}
	}

	return s, s.Validate()
}

// Validate reports the first out-of-range setting.
func (s Settings) Validate() error {
	switch {
	case s.RefreshInterval < constants.MinRefreshInterval:
		return fmt.Errorf("refresh_interval must be at least %v", constants.MinRefreshInterval)
	case s.MergedDays < 1:
		return fmt.Errorf("merged_days must be at least 1")
	case s.NotificationHours < 1:
		return fmt.Errorf("notification_hours must be at least 1")
	case s.MaxConcurrency < 1:
		return fmt.Errorf("max_concurrency must be at least 1")
	case s.CommandTimeout < 0:
		return fmt.Errorf("command_timeout must not be negative")
	}
	return nil
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".prwatch"
	}
	return filepath.Join(configDir, "prwatch")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".prwatch.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the user config directory, then
// merges any local .prwatch.yaml on top (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at the given paths. Missing
// files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	global, err := readConfig(globalPath)
	if err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readConfig(localPath)
	if err != nil {
		return nil, fmt.Errorf("local config: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "text"
	}
	return cfg, nil
}

func readConfig(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.RefreshInterval != nil {
		result.RefreshInterval = local.RefreshInterval
	}
	if local.MergedDays != nil {
		result.MergedDays = local.MergedDays
	}
	if local.NotificationHours != nil {
		result.NotificationHours = local.NotificationHours
	}
	if local.MaxConcurrency != nil {
		result.MaxConcurrency = local.MaxConcurrency
	}
	if local.CommandTimeout != "" {
		result.CommandTimeout = local.CommandTimeout
	}
	if local.GHPath != "" {
		result.GHPath = local.GHPath
	}
	if local.StatePath != "" {
		result.StatePath = local.StatePath
	}
	result.AutoUnmute = mergeAutoUnmute(global.AutoUnmute, local.AutoUnmute)

	return &result
}

func mergeAutoUnmute(global, local *AutoUnmuteOverrides) *AutoUnmuteOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &AutoUnmuteOverrides{}

	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.Enabled != nil {
			result.Enabled = local.Enabled
		}
		if local.HumansOnly != nil {
			result.HumansOnly = local.HumansOnly
		}
		if local.MentionsOnly != nil {
			result.MentionsOnly = local.MentionsOnly
		}
	}
	return result
}

// Save saves the configuration to the global config file
func (c *Config) Save() error {
	return c.SaveAs(ConfigPath())
}

// SaveAs writes the configuration to path.
func (c *Config) SaveAs(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(path, string(data))
}

// Keys lists the settings accepted by Set.
var Keys = []string{
	"default_format",
	"refresh_interval",
	"merged_days",
	"notification_hours",
	"max_concurrency",
	"command_timeout",
	"gh_path",
	"state_path",
	"auto_unmute.enabled",
	"auto_unmute.humans_only",
	"auto_unmute.mentions_only",
}

// Set assigns a single key from its string form. The resulting settings are
// validated before c is modified.
func (c *Config) Set(key, value string) error {
	next := *c
	if c.AutoUnmute != nil {
		au := *c.AutoUnmute
		next.AutoUnmute = &au
	}

	switch key {
	case "default_format":
		if value != "text" && value != "json" && value != "markdown" {
			return fmt.Errorf("invalid format: %s (must be text, json or markdown)", value)
		}
		next.DefaultFormat = value
	case "refresh_interval":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		next.RefreshInterval = &n
	case "merged_days":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		next.MergedDays = &n
	case "notification_hours":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		next.NotificationHours = &n
	case "max_concurrency":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		next.MaxConcurrency = &n
	case "command_timeout":
		next.CommandTimeout = value
	case "gh_path":
		next.GHPath = value
	case "state_path":
		next.StatePath = value
	case "auto_unmute.enabled", "auto_unmute.humans_only", "auto_unmute.mentions_only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		if next.AutoUnmute == nil {
			next.AutoUnmute = &AutoUnmuteOverrides{}
		}
		switch strings.TrimPrefix(key, "auto_unmute.") {
		case "enabled":
			next.AutoUnmute.Enabled = &b
		case "humans_only":
			next.AutoUnmute.HumansOnly = &b
		case "mentions_only":
			next.AutoUnmute.MentionsOnly = &b
		}
	default:
		return fmt.Errorf("unknown config key: %s (available: %s)", key, strings.Join(Keys, ", "))
	}

	if _, err := next.Settings(); err != nil {
		return err
	}
	*c = next
	return nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: expected an integer, got %q", key, value)
	}
	return n, nil
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	s := DefaultSettings()
	interval := int(s.RefreshInterval / time.Minute)

	return &Config{
		DefaultFormat:     "text",
		RefreshInterval:   &interval,
		MergedDays:        &s.MergedDays,
		NotificationHours: &s.NotificationHours,
		MaxConcurrency:    &s.MaxConcurrency,
		CommandTimeout:    s.CommandTimeout.String(),
		AutoUnmute: &AutoUnmuteOverrides{
			Enabled:      &s.AutoUnmute.Enabled,
			HumansOnly:   &s.AutoUnmute.HumansOnly,
			MentionsOnly: &s.AutoUnmute.MentionsOnly,
		},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# prwatch configuration file
# See: prwatch config defaults  (for all available options)

# Minutes between refreshes
refresh_interval: 5

# Lookback windows
merged_days: 3
notification_hours: 24

# Revive muted PRs when someone else comments after the mute
# auto_unmute:
#   enabled: true
#   humans_only: true
#   mentions_only: true

# Pin the gh binary when it is not on PATH (optional)
# gh_path: /opt/homebrew/bin/gh
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
