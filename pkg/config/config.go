// Package config loads smbcore's configuration: the knobs in spec.md §6
// (handle-map sizing, search-slot ceilings, streamed segment buffer sizing,
// worker pool size, shutdown grace windows) plus the ambient logging,
// metrics, and optional warm-store settings.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (SMBCORE_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Generalized from the teacher's pkg/config: same viper + mapstructure
// decode-hook approach, scoped to the filesystem core's own domain instead
// of database/control-plane/adapter sections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/dittofs-core/smbcore/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is smbcore's top-level configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls the Prometheus metrics registration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Filesystem holds every knob in spec.md §6.
	Filesystem FilesystemConfig `mapstructure:"filesystem" yaml:"filesystem"`

	// Reaper controls the per-share FileState expiry scan and its optional
	// fast/warm caching layers.
	Reaper ReaperConfig `mapstructure:"reaper" yaml:"reaper"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics registration.
type MetricsConfig struct {
	// Enabled controls whether smbfs/metrics collectors are registered.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the /metrics HTTP port. smbcoresrv logs it when Enabled but
	// starts no HTTP listener.
	Port int `mapstructure:"port" yaml:"port"`
}

// FilesystemConfig holds every knob named in spec.md §6.
type FilesystemConfig struct {
	// MaxFilesPerTree is the handle-allocation ceiling per TreeConnection.
	MaxFilesPerTree int `mapstructure:"max_files_per_tree" yaml:"max_files_per_tree"`

	// InitialFilesPerTree is the initial handle-map capacity.
	InitialFilesPerTree int `mapstructure:"initial_files_per_tree" yaml:"initial_files_per_tree"`

	// HashedOpenFileMap chooses the OpenFileMap variant: true picks
	// handle.NewHashedMap, false picks handle.NewArrayMap.
	HashedOpenFileMap bool `mapstructure:"hashed_open_file_map" yaml:"hashed_open_file_map"`

	// DefaultSearchesPerFile is the initial search-slot count.
	DefaultSearchesPerFile int `mapstructure:"default_searches_per_file" yaml:"default_searches_per_file"`

	// MaxSearchesPerFile is the search-slot ceiling.
	MaxSearchesPerFile int `mapstructure:"max_searches_per_file" yaml:"max_searches_per_file"`

	// StreamedBufferSize is the size of a single tx/rx page for a Streamed
	// segment. Accepts human-readable sizes ("2MiB") via bytesize.ByteSize.
	StreamedBufferSize bytesize.ByteSize `mapstructure:"streamed_buffer_size" yaml:"streamed_buffer_size"`

	// StreamedSlotCount is the max simultaneous rx or tx buffers held.
	StreamedSlotCount int `mapstructure:"streamed_slot_count" yaml:"streamed_slot_count"`

	// ShortReadThreshold is the upper bound for the small out-of-sequence
	// read path.
	ShortReadThreshold bytesize.ByteSize `mapstructure:"short_read_threshold" yaml:"short_read_threshold"`

	// WorkerThreadCount is the background loader pool size, clamped to
	// [loader.MinWorkers, loader.MaxWorkers] by the loader itself.
	WorkerThreadCount int `mapstructure:"worker_thread_count" yaml:"worker_thread_count"`

	// ShutdownWaitMS is the grace window per shutdown phase, in
	// milliseconds, matching spec.md §6's knob name and unit directly.
	ShutdownWaitMS int `mapstructure:"shutdown_wait_ms" yaml:"shutdown_wait_ms"`
}

// ShutdownWait returns ShutdownWaitMS as a time.Duration.
func (f FilesystemConfig) ShutdownWait() time.Duration {
	return time.Duration(f.ShutdownWaitMS) * time.Millisecond
}

// ReaperConfig controls FileStateReaper's scan cadence and its optional
// ristretto fast-path cache and badger warm store.
type ReaperConfig struct {
	// ScanInterval is how often FileStateReaper scans for expired entries.
	ScanInterval time.Duration `mapstructure:"scan_interval" yaml:"scan_interval"`

	// ExpiryAge is the minimum idle time before a zero-reference entry is
	// expired. Zero means reaper.DefaultExpiryAge.
	ExpiryAge time.Duration `mapstructure:"expiry_age" yaml:"expiry_age"`

	// WarmStore enables reaper.Cache.EnableWarmStore when Enabled is true;
	// Dir is then required.
	WarmStore WarmStoreConfig `mapstructure:"warm_store" yaml:"warm_store"`
}

// WarmStoreConfig controls the optional badger-backed persistence layer
// for FileState entries (spec.md §6: "free to persist... but the core
// does not require it").
type WarmStoreConfig struct {
	// Enabled turns on warm-store persistence.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Dir is the badger database directory. Required when Enabled.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	// Register the defaults with viper so env vars apply to every key and
	// keys missing from the file keep their defaults.
	var defaults map[string]interface{}
	data, err := yaml.Marshal(GetDefaultConfig())
	if err == nil {
		err = yaml.Unmarshal(data, &defaults)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build default config: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, producing a user-friendly error when no
// config file exists at the requested (or default) location.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize one first:\n"+
				"  smbcoresrv init\n\n"+
				"Or point at one explicitly:\n"+
				"  smbcoresrv <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed. Used by `smbcoresrv init` and tests.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("SMBCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the ByteSize and time.Duration decode hooks,
// the same pair the teacher's config package composes.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "smbcore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "smbcore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
