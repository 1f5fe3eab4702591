package env

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/app"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the effective config as TOML",
		Long: `Prints the config resulting from ENV, .env and --config as TOML.
The output can be used as a starting point for a config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			cfg.Database.Password = redacted(cfg.Database.Password)
			cfg.Redis.Password = redacted(cfg.Redis.Password)

			return toml.NewEncoder(os.Stdout).Encode(cfg)
		},
	}
}

func redacted(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}
