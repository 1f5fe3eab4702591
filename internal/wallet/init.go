package wallet

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github/chapool/go-txrelay/internal/wallet/address"
	"github/chapool/go-txrelay/internal/wallet/keystore"
	"github/chapool/go-txrelay/internal/wallet/seed"
	"golang.org/x/term"
)

const (
	// MinPasswordLength applies to newly created keystores.
	MinPasswordLength = 8

	mnemonicEntropyBits = 256
)

var ErrPasswordTooShort = errors.Errorf("password must be at least %d characters", MinPasswordLength)

// CreateKeystore generates a 24 word mnemonic, encrypts it with password and
// records the verification address next to it. The mnemonic is returned so
// the caller can show it once for backup.
func CreateKeystore(ctx context.Context, keystoreService keystore.Service, addressService address.Service, password string) (string, common.Address, error) {
	if len(password) < MinPasswordLength {
		return "", common.Address{}, ErrPasswordTooShort
	}

	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", common.Address{}, errors.Wrap(err, "failed to generate entropy")
	}
	defer zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", common.Address{}, errors.Wrap(err, "failed to generate mnemonic")
	}

	verification, err := ImportKeystore(ctx, keystoreService, addressService, mnemonic, password)
	if err != nil {
		return "", common.Address{}, err
	}

	return mnemonic, verification, nil
}

// ImportKeystore encrypts an existing mnemonic.
func ImportKeystore(ctx context.Context, keystoreService keystore.Service, addressService address.Service, mnemonic string, password string) (common.Address, error) {
	log := logger(ctx)

	tmp := seed.NewManager()
	defer tmp.Clear()

	if err := tmp.Initialize(mnemonic, ""); err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive seed")
	}

	verification, err := DeriveVerificationAddress(tmp, addressService)
	if err != nil {
		return common.Address{}, err
	}

	if _, err := keystoreService.CreateKeystore(ctx, mnemonic, password, verification); err != nil {
		return common.Address{}, errors.Wrap(err, "failed to create keystore")
	}

	log.Info().Str("verification_address", verification.Hex()).Msg("Keystore created successfully")

	return verification, nil
}

// UnlockKeystore decrypts the keystore, loads the seed into seedManager and
// checks the derived verification address against the stored one.
func UnlockKeystore(ctx context.Context, keystoreService keystore.Service, seedManager seed.Manager, addressService address.Service, password string) error {
	log := logger(ctx)

	// 1. Load keystore
	//nolint:varnamelen // ks is a common abbreviation for keystore
	ks, err := keystoreService.GetKeystore(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get keystore")
	}

	// 2. Decrypt mnemonic
	mnemonic, err := keystoreService.DecryptMnemonic(ctx, ks, password)
	if err != nil {
		return errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
	}

	// 3. Initialize seed manager
	if err := seedManager.Initialize(mnemonic, ""); err != nil {
		return errors.Wrap(err, "failed to initialize seed manager")
	}

	// 4. Verify
	valid, err := VerifyPasswordByAddress(seedManager, addressService, ks.VerificationAddress())
	if err != nil {
		seedManager.Clear()
		return errors.Wrap(err, "failed to verify password")
	}
	if !valid {
		seedManager.Clear()
		return errors.New("password verification failed: derived address does not match stored verification address")
	}

	log.Info().Msg("Keystore unlocked")

	return nil
}

// PromptPassword prompts for password input (hides input)
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return string(passwordBytes), nil
}

// PromptNewPassword asks twice and enforces MinPasswordLength.
func PromptNewPassword() (string, error) {
	password, err := PromptPassword(fmt.Sprintf("Enter password for keystore (min %d characters): ", MinPasswordLength))
	if err != nil {
		return "", err
	}
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	passwordConfirm, err := PromptPassword("Confirm password: ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password confirmation")
	}
	if password != passwordConfirm {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}
