package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func withTempConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestInitConfig_Success(t *testing.T) {
	withTempConfigHome(t)

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	for _, section := range []string{"logging:", "filesystem:", "reaper:"} {
		if !strings.Contains(string(content), section) {
			t.Errorf("config file missing section: %s", section)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("generated config is not valid YAML: %v", err)
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	withTempConfigHome(t)

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("first InitConfig failed: %v", err)
	}

	if _, err := InitConfig(false); err == nil {
		t.Fatal("expected error when config already exists")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected 'already exists' error, got: %v", err)
	}
}

func TestInitConfig_Force(t *testing.T) {
	withTempConfigHome(t)

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("first InitConfig failed: %v", err)
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("InitConfig with force failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatal("recreated config file is missing or empty")
	}
}

func TestInitConfigToPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom", "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created at %s", path)
	}
}
