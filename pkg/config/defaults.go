package config

import (
	"strings"
	"time"

	"github.com/dittofs-core/smbcore/internal/bytesize"
)

// ApplyDefaults fills in zero-valued fields with spec.md §6's defaults.
// Explicit values (from file or environment) are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyFilesystemDefaults(&cfg.Filesystem)
	applyReaperDefaults(&cfg.Reaper)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyFilesystemDefaults mirrors spec.md §6's "Configurable knobs" table.
func applyFilesystemDefaults(cfg *FilesystemConfig) {
	if cfg.MaxFilesPerTree == 0 {
		cfg.MaxFilesPerTree = 8192
	}
	if cfg.InitialFilesPerTree == 0 {
		cfg.InitialFilesPerTree = 32
	}
	// HashedOpenFileMap defaults to true; since bool zero value is false,
	// only a config/env value explicitly set to false overrides it.
	// GetDefaultConfig below sets it directly for the zero-config case.
	if cfg.DefaultSearchesPerFile == 0 {
		cfg.DefaultSearchesPerFile = 8
	}
	if cfg.MaxSearchesPerFile == 0 {
		cfg.MaxSearchesPerFile = 256
	}
	if cfg.StreamedBufferSize == 0 {
		cfg.StreamedBufferSize = 2 * bytesize.MiB
	}
	if cfg.StreamedSlotCount == 0 {
		cfg.StreamedSlotCount = 4
	}
	if cfg.ShortReadThreshold == 0 {
		cfg.ShortReadThreshold = 64 * bytesize.KiB
	}
	if cfg.WorkerThreadCount == 0 {
		cfg.WorkerThreadCount = 8
	}
	if cfg.ShutdownWaitMS == 0 {
		cfg.ShutdownWaitMS = 2000
	}
}

func applyReaperDefaults(cfg *ReaperConfig) {
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = 30 * time.Second
	}
	// ExpiryAge left at zero: reaper.New treats <=0 as DefaultExpiryAge.
}

// GetDefaultConfig returns a Config with every default applied, and
// HashedOpenFileMap explicitly set (its zero value collides with its own
// "disabled" state, so ApplyDefaults alone can't distinguish them).
func GetDefaultConfig() *Config {
	cfg := &Config{
		Filesystem: FilesystemConfig{
			HashedOpenFileMap: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
