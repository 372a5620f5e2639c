package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// userConfigName is the file name used under ConfigDir, both when saving and
// when findConfigFile probes for it.
const userConfigName = "config.yaml"

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), userConfigName))
}

// SaveTo writes the config to a specific path, creating parent directories
// as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
