package transactions

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// releaseNonce hands nonce back if gateway supports it. It runs on a context
// detached from ctx so a cancelled submission still frees its nonce.
func releaseNonce(ctx context.Context, gateway any, address common.Address, nonce Nonce, logger zerolog.Logger) {
	releaser, ok := gateway.(NonceReleaser)
	if !ok {
		return
	}

	if err := releaser.ReleaseNonce(context.WithoutCancel(ctx), address, nonce); err != nil {
		logger.Warn().Err(err).Uint64("nonce", uint64(nonce)).Msg("Failed to release nonce")
		return
	}

	logger.Debug().Uint64("nonce", uint64(nonce)).Msg("Released nonce")
}
