package config

import (
	"fmt"
	"os"
)

// configFileHeader is prepended to a freshly initialized config file.
const configFileHeader = `# smbcore configuration file
#
# See spec.md §6 for the filesystem knobs below and their defaults.
`

// InitConfig writes a default configuration file to the default location
// (GetDefaultConfigPath). It refuses to overwrite an existing file unless
// force is true. Returns the path written.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, refusing
// to overwrite an existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()
	if err := SaveConfig(cfg, path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(configFileHeader), data...), 0600)
}
