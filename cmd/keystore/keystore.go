package keystore

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/util/command"
	"github/chapool/go-txrelay/internal/wallet"
	"github/chapool/go-txrelay/internal/wallet/address"
)

const importFlag = "import"

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newInit(),
	)
}

func newInit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Creates the encrypted keystore holding the wallet mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			importMnemonic, err := cmd.Flags().GetBool(importFlag)
			if err != nil {
				return err
			}

			password, err := wallet.PromptNewPassword()
			if err != nil {
				return err
			}

			keystoreService := app.KeystoreService(cfg.Wallet)
			addressService := address.NewService()

			if importMnemonic {
				mnemonic, err := wallet.PromptPassword("Enter mnemonic: ")
				if err != nil {
					return err
				}

				verification, err := wallet.ImportKeystore(cmd.Context(), keystoreService, addressService, mnemonic, password)
				if err != nil {
					return err
				}

				fmt.Fprintf(os.Stdout, "Keystore written to %s\nVerification address: %s\n", cfg.Wallet.KeystorePath, verification.Hex())
				return nil
			}

			mnemonic, verification, err := wallet.CreateKeystore(cmd.Context(), keystoreService, addressService, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Keystore written to %s\nVerification address: %s\n\n", cfg.Wallet.KeystorePath, verification.Hex())
			fmt.Fprintf(os.Stdout, "Write down the mnemonic below. It is not shown again.\n\n%s\n", mnemonic)

			return nil
		},
	}

	cmd.Flags().Bool(importFlag, false, "Import an existing mnemonic instead of generating one")

	return cmd
}
