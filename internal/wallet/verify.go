package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/go-txrelay/internal/util"
	"github/chapool/go-txrelay/internal/wallet/address"
	"github/chapool/go-txrelay/internal/wallet/seed"
)

const (
	// VerificationAddressIndex is the address index used for password verification
	VerificationAddressIndex = 0
)

func DeriveVerificationAddress(seedManager seed.Manager, addressService address.Service) (common.Address, error) {
	seedBytes := seedManager.GetSeed()
	if seedBytes == nil {
		return common.Address{}, errors.New("seed not initialized")
	}
	defer zero(seedBytes)

	derived, err := addressService.DeriveAddress(seedBytes, addressService.GetBIP44Path(VerificationAddressIndex))
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification address")
	}

	return derived, nil
}

// VerifyPasswordByAddress compares the verification address derived from the
// loaded seed with the one stored in the keystore.
func VerifyPasswordByAddress(seedManager seed.Manager, addressService address.Service, stored common.Address) (bool, error) {
	derived, err := DeriveVerificationAddress(seedManager, addressService)
	if err != nil {
		return false, err
	}

	if derived != stored {
		log := logger(context.Background())
		log.Warn().
			Str("derived", derived.Hex()).
			Str("stored", stored.Hex()).
			Msg("Verification address mismatch")
		return false, nil
	}

	return true, nil
}

func logger(ctx context.Context) zerolog.Logger {
	return util.LogFromContext(ctx).With().Str("component", "wallet").Logger()
}
