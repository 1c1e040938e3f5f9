package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadFile overlays settings from a YAML file onto the config. Missing keys
// keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}
