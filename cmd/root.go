package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"github/chapool/go-txrelay/cmd/db"
	"github/chapool/go-txrelay/cmd/env"
	"github/chapool/go-txrelay/cmd/keystore"
	"github/chapool/go-txrelay/cmd/probe"
	"github/chapool/go-txrelay/cmd/queue"
	"github/chapool/go-txrelay/cmd/server"
	"github/chapool/go-txrelay/cmd/submit"
	"github/chapool/go-txrelay/internal/config"
)

const envFileFlag = "env-file"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Submits gas-sponsored protocol calls and self-funded transactions
and tracks them until they are observed on chain.
Requires configuration through ENV or --config.`, config.ModuleName),
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString(envFileFlag)
		if err != nil {
			return err
		}

		// .env never overrides variables already set in the environment
		if err := gotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().String(envFileFlag, ".env", "Dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String(config.FileFlag, "", "Optional TOML/YAML config file overlaid on the environment")

	// attach the subcommands
	rootCmd.AddCommand(
		db.New(),
		env.New(),
		keystore.New(),
		probe.New(),
		queue.New(),
		server.New(),
		submit.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
