package nonce

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/transactions"
)

// PostgresGateway allocates nonces through the wallet_nonces table so that
// several processes can share one wallet. The row is locked for the duration
// of the allocation.
type PostgresGateway struct {
	db      *sql.DB
	chainID int64
	source  Source
}

// NewPostgresGateway returns a gateway for chainID. source is optional; when
// set, the stored nonce is raised to the source nonce if it fell behind.
func NewPostgresGateway(db *sql.DB, chainID int64, source Source) *PostgresGateway {
	return &PostgresGateway{
		db:      db,
		chainID: chainID,
		source:  source,
	}
}

func (g *PostgresGateway) GetNonceFor(ctx context.Context, wallet transactions.Wallet) (transactions.Nonce, error) {
	address := strings.ToLower(wallet.Address().Hex())

	var floor int64
	if g.source != nil {
		n, err := g.source.NonceAt(ctx, wallet.Address())
		if err != nil {
			return 0, errors.Wrapf(err, "failed to get nonce for %s", address)
		}
		floor = int64(n) //nolint:gosec
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_nonces (address, chain_id, nonce) VALUES ($1, $2, 0) ON CONFLICT (address, chain_id) DO NOTHING`,
		address, g.chainID,
	); err != nil {
		return 0, errors.Wrap(err, "failed to init wallet nonce record")
	}

	var stored int64
	if err := tx.QueryRowContext(ctx,
		`SELECT nonce FROM wallet_nonces WHERE address = $1 AND chain_id = $2 FOR UPDATE`,
		address, g.chainID,
	).Scan(&stored); err != nil {
		return 0, errors.Wrap(err, "failed to get wallet nonce record")
	}

	current := max(stored, floor)

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallet_nonces SET nonce = $3, last_used_at = now() WHERE address = $1 AND chain_id = $2`,
		address, g.chainID, current+1,
	); err != nil {
		return 0, errors.Wrap(err, "failed to update wallet nonce")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit transaction")
	}

	return transactions.Nonce(current), nil //nolint:gosec
}

// ReleaseNonce hands n back when it is still the last nonce allocated for
// address. A nonce followed by later allocations stays consumed.
func (g *PostgresGateway) ReleaseNonce(ctx context.Context, address common.Address, n transactions.Nonce) error {
	res, err := g.db.ExecContext(ctx,
		`UPDATE wallet_nonces SET nonce = $3 WHERE address = $1 AND chain_id = $2 AND nonce = $4`,
		strings.ToLower(address.Hex()), g.chainID, int64(n), int64(n)+1, //nolint:gosec
	)
	if err != nil {
		return errors.Wrapf(err, "failed to release nonce %d", n)
	}

	if released, err := res.RowsAffected(); err == nil && released == 0 {
		log.Debug().Str("address", address.Hex()).Uint64("nonce", uint64(n)).Msg("Nonce was not the last allocation, not released")
	}

	return nil
}
