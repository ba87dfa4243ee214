package commands

import (
	"github.com/mosaicnetworks/tangle/src/config"
)

//CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Tangle config.Config `mapstructure:",squash"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Tangle: *config.NewDefaultConfig(),
	}
}
