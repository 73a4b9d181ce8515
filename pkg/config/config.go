/*
Package config manages TOML config for SpellServe.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/spellserve/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Dict   DictConfig   `toml:"dict"`
	Cache  CacheConfig  `toml:"cache"`
	CLI    CliConfig    `toml:"cli"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig has HTTP server options.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// RequestsPerSecond of 0 disables rate limiting.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	MaxLetters        int     `toml:"max_letters"`
}

// DictConfig holds word list options.
type DictConfig struct {
	Path    string `toml:"path"`
	URL     string `toml:"url"`
	Scoring bool   `toml:"scoring"`
}

// CacheConfig holds the coalescing cache options. An empty Dir keeps the
// store in memory.
type CacheConfig struct {
	Enabled      bool     `toml:"enabled"`
	Dir          string   `toml:"dir"`
	PendingTTL   Duration `toml:"pending_ttl"`
	ReadyTTL     Duration `toml:"ready_ttl"`
	PollInterval Duration `toml:"poll_interval"`
	GCInterval   Duration `toml:"gc_interval"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultDistance int `toml:"default_distance"`
	MaxPrint        int `toml:"max_print"`
}

// LogConfig holds logging options. An empty Level picks the mode default:
// info when serving HTTP, warn for IPC and CLI.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text, logfmt or json
}

// Duration is a time.Duration written as "3s" or "1h" in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/spellserve
// 2. ~/Library/Application Support/spellserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", utils.AppName)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", utils.AppName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/spellserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8888",
			ReadTimeout:       Duration{10 * time.Second},
			WriteTimeout:      Duration{30 * time.Second},
			ShutdownTimeout:   Duration{5 * time.Second},
			RequestsPerSecond: 100,
			Burst:             200,
			MaxLetters:        60,
		},
		Dict: DictConfig{
			Path:    "OWL2.txt",
			Scoring: true,
		},
		Cache: CacheConfig{
			Enabled:      true,
			PendingTTL:   Duration{3 * time.Second},
			ReadyTTL:     Duration{time.Hour},
			PollInterval: Duration{10 * time.Millisecond},
			GCInterval:   Duration{5 * time.Minute},
		},
		CLI: CliConfig{
			DefaultDistance: 0,
			MaxPrint:        50,
		},
		Log: LogConfig{
			Format: "text",
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their
// defaults; a file that does not decode cleanly is salvaged key by key.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(raw, "cache"); ok {
		extractCacheConfig(section, &config.Cache)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	if section, ok := utils.ExtractSection(raw, "log"); ok {
		extractLogConfig(section, &config.Log)
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		server.Addr = val
	}
	if val, ok := utils.ExtractDuration(data, "read_timeout"); ok {
		server.ReadTimeout.Duration = val
	}
	if val, ok := utils.ExtractDuration(data, "write_timeout"); ok {
		server.WriteTimeout.Duration = val
	}
	if val, ok := utils.ExtractDuration(data, "shutdown_timeout"); ok {
		server.ShutdownTimeout.Duration = val
	}
	if val, ok := utils.ExtractFloat(data, "requests_per_second"); ok {
		server.RequestsPerSecond = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		server.Burst = val
	}
	if val, ok := utils.ExtractInt64(data, "max_letters"); ok {
		server.MaxLetters = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		dict.Path = val
	}
	if val, ok := utils.ExtractString(data, "url"); ok {
		dict.URL = val
	}
	if val, ok := utils.ExtractBool(data, "scoring"); ok {
		dict.Scoring = val
	}
}

func extractCacheConfig(data map[string]any, cache *CacheConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		cache.Enabled = val
	}
	if val, ok := utils.ExtractString(data, "dir"); ok {
		cache.Dir = val
	}
	if val, ok := utils.ExtractDuration(data, "pending_ttl"); ok {
		cache.PendingTTL.Duration = val
	}
	if val, ok := utils.ExtractDuration(data, "ready_ttl"); ok {
		cache.ReadyTTL.Duration = val
	}
	if val, ok := utils.ExtractDuration(data, "poll_interval"); ok {
		cache.PollInterval.Duration = val
	}
	if val, ok := utils.ExtractDuration(data, "gc_interval"); ok {
		cache.GCInterval.Duration = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_distance"); ok {
		cli.DefaultDistance = val
	}
	if val, ok := utils.ExtractInt64(data, "max_print"); ok {
		cli.MaxPrint = val
	}
}

func extractLogConfig(data map[string]any, l *LogConfig) {
	if val, ok := utils.ExtractString(data, "level"); ok {
		l.Level = val
	}
	if val, ok := utils.ExtractString(data, "format"); ok {
		l.Format = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
