package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
logging:
  level: "DEBUG"

filesystem:
  max_files_per_tree: 4096
  streamed_buffer_size: 1Mi
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected logging.level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.Filesystem.MaxFilesPerTree != 4096 {
		t.Errorf("expected max_files_per_tree 4096, got %d", cfg.Filesystem.MaxFilesPerTree)
	}
	if cfg.Filesystem.StreamedBufferSize.Uint64() != 1024*1024 {
		t.Errorf("expected streamed_buffer_size 1MiB, got %v", cfg.Filesystem.StreamedBufferSize)
	}
	// Untouched knobs still get spec.md §6 defaults.
	if cfg.Filesystem.WorkerThreadCount != 8 {
		t.Errorf("expected default worker_thread_count 8, got %d", cfg.Filesystem.WorkerThreadCount)
	}
	if cfg.Filesystem.ShutdownWait() != 2*time.Second {
		t.Errorf("expected default shutdown wait 2s, got %v", cfg.Filesystem.ShutdownWait())
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	missing := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(missing)
	if err != nil {
		t.Fatalf("expected no error loading defaults, got: %v", err)
	}
	if cfg.Filesystem.MaxFilesPerTree != 8192 {
		t.Errorf("expected default max_files_per_tree 8192, got %d", cfg.Filesystem.MaxFilesPerTree)
	}
	if !cfg.Filesystem.HashedOpenFileMap {
		t.Error("expected hashed_open_file_map default true")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	missing := filepath.Join(tmpDir, "nonexistent.yaml")

	t.Setenv("SMBCORE_FILESYSTEM_WORKER_THREAD_COUNT", "16")

	cfg, err := Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Filesystem.WorkerThreadCount != 16 {
		t.Errorf("expected env override worker_thread_count 16, got %d", cfg.Filesystem.WorkerThreadCount)
	}
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
filesystem:
  worker_thread_count: 1
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected validation error for worker_thread_count below minimum")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Filesystem.MaxFilesPerTree = 123

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after SaveConfig failed: %v", err)
	}
	if loaded.Filesystem.MaxFilesPerTree != 123 {
		t.Errorf("expected round-tripped max_files_per_tree 123, got %d", loaded.Filesystem.MaxFilesPerTree)
	}
}
