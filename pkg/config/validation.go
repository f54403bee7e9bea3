package config

import "fmt"

// Validate checks cfg for internally-inconsistent values after
// ApplyDefaults has run. The teacher's own config package references a
// validator (struct `validate:"..."` tags plus go-playground/validator)
// without any reachable call site anywhere in the pack, so there is no
// genuine usage precedent to ground that dependency against here; this is
// a small, fixed set of checks better expressed directly.
func Validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("logging.level must be one of DEBUG, INFO, WARN, ERROR, got %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	fs := cfg.Filesystem
	if fs.MaxFilesPerTree <= 0 {
		return fmt.Errorf("filesystem.max_files_per_tree must be positive, got %d", fs.MaxFilesPerTree)
	}
	if fs.InitialFilesPerTree <= 0 || fs.InitialFilesPerTree > fs.MaxFilesPerTree {
		return fmt.Errorf("filesystem.initial_files_per_tree must be in (0, max_files_per_tree], got %d", fs.InitialFilesPerTree)
	}
	if fs.DefaultSearchesPerFile <= 0 || fs.DefaultSearchesPerFile > fs.MaxSearchesPerFile {
		return fmt.Errorf("filesystem.default_searches_per_file must be in (0, max_searches_per_file], got %d", fs.DefaultSearchesPerFile)
	}
	if fs.WorkerThreadCount < 4 || fs.WorkerThreadCount > 50 {
		return fmt.Errorf("filesystem.worker_thread_count must be in [4, 50], got %d", fs.WorkerThreadCount)
	}
	if fs.StreamedSlotCount <= 0 {
		return fmt.Errorf("filesystem.streamed_slot_count must be positive, got %d", fs.StreamedSlotCount)
	}
	if fs.ShutdownWaitMS <= 0 {
		return fmt.Errorf("filesystem.shutdown_wait_ms must be positive, got %d", fs.ShutdownWaitMS)
	}

	if cfg.Reaper.WarmStore.Enabled && cfg.Reaper.WarmStore.Dir == "" {
		return fmt.Errorf("reaper.warm_store.dir is required when reaper.warm_store.enabled is true")
	}

	return nil
}
