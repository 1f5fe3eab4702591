package app

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/config"
	"github/chapool/go-txrelay/internal/util"
)

// LoadConfig reads the config named by the --config flag, validates it and
// configures the global logger.
func LoadConfig(cmd *cobra.Command) (config.Server, error) {
	path, err := cmd.Flags().GetString(config.FileFlag)
	if err != nil {
		return config.Server{}, errors.Wrap(err, "failed to read config flag")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Server{}, errors.Wrap(err, "invalid config")
	}

	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	return cfg, nil
}
