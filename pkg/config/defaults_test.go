package config

import "testing"

func TestGetDefaultConfig_MatchesSpecKnobs(t *testing.T) {
	cfg := GetDefaultConfig()

	cases := []struct {
		name string
		got  int
		want int
	}{
		{"max_files_per_tree", cfg.Filesystem.MaxFilesPerTree, 8192},
		{"initial_files_per_tree", cfg.Filesystem.InitialFilesPerTree, 32},
		{"default_searches_per_file", cfg.Filesystem.DefaultSearchesPerFile, 8},
		{"max_searches_per_file", cfg.Filesystem.MaxSearchesPerFile, 256},
		{"streamed_slot_count", cfg.Filesystem.StreamedSlotCount, 4},
		{"worker_thread_count", cfg.Filesystem.WorkerThreadCount, 8},
		{"shutdown_wait_ms", cfg.Filesystem.ShutdownWaitMS, 2000},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}

	if !cfg.Filesystem.HashedOpenFileMap {
		t.Error("expected hashed_open_file_map default true")
	}
	if cfg.Filesystem.StreamedBufferSize.Uint64() != 2*1024*1024 {
		t.Errorf("expected streamed_buffer_size 2MiB, got %v", cfg.Filesystem.StreamedBufferSize)
	}
	if cfg.Filesystem.ShortReadThreshold.Uint64() != 64*1024 {
		t.Errorf("expected short_read_threshold 64KiB, got %v", cfg.Filesystem.ShortReadThreshold)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Filesystem.MaxFilesPerTree = 1000
	cfg.Logging.Level = "warn"

	ApplyDefaults(cfg)

	if cfg.Filesystem.MaxFilesPerTree != 1000 {
		t.Errorf("expected explicit max_files_per_tree to survive, got %d", cfg.Filesystem.MaxFilesPerTree)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("expected logging.level normalized to uppercase, got %q", cfg.Logging.Level)
	}
}
