package config

import "testing"

func TestValidate_RejectsBadLoggingLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "TRACE"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid logging level")
	}
}

func TestValidate_RejectsOutOfRangeWorkerCount(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Filesystem.WorkerThreadCount = 51
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for worker_thread_count above 50")
	}
}

func TestValidate_RejectsInitialExceedingMax(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Filesystem.InitialFilesPerTree = cfg.Filesystem.MaxFilesPerTree + 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when initial_files_per_tree exceeds max_files_per_tree")
	}
}

func TestValidate_RejectsWarmStoreWithoutDir(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Reaper.WarmStore.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when warm_store.enabled is true without a dir")
	}
}
