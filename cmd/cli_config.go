package cmd

import (
	"os"

	"github.com/creasty/defaults"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"gopkg.in/yaml.v3"
)

// CLIConfig represents minimal configuration for CLI commands
type CLIConfig struct {
	// Logging level
	Logging string `yaml:"logging" default:"error" validate:"oneof=panic fatal warn info debug trace"`

	// Prisons configuration; only the source and exclusion settings are used
	Prisons prisons.Config `yaml:"prisons"`
}

// Validate validates the CLI configuration
func (c *CLIConfig) Validate() error {
	return c.Prisons.Validate()
}

// LoadCLIConfig loads CLI configuration from a YAML file. A missing file
// leaves the defaults in place.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = "config.yaml"
	}

	config := &CLIConfig{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}
