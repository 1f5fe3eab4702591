// Package app assembles the submission pipelines out of the components
// created by api.InitNewServer. It is shared by the CLI commands.
package app

import (
	"context"
	"database/sql"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/config"
	"github/chapool/go-txrelay/internal/gateway/calls"
	"github/chapool/go-txrelay/internal/gateway/nonce"
	"github/chapool/go-txrelay/internal/gateway/selffunded"
	"github/chapool/go-txrelay/internal/presenter"
	"github/chapool/go-txrelay/internal/reconcile"
	"github/chapool/go-txrelay/internal/relay"
	"github/chapool/go-txrelay/internal/transactions"
	"github/chapool/go-txrelay/internal/wallet"
	"github/chapool/go-txrelay/internal/wallet/address"
	"github/chapool/go-txrelay/internal/wallet/keystore"
	"github/chapool/go-txrelay/internal/wallet/seed"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

// Pipelines are the two submission paths sharing one active wallet.
type Pipelines struct {
	Active *wallet.Active
	Meta   *transactions.ProtocolCallUseCase[api.MetaRequest]
	Pay    *transactions.PayTransactionUseCase[api.NativeRequest]
}

// OpenDB opens the postgres pool used by the postgres nonce backend.
func OpenDB(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}

func KeystoreService(cfg config.Wallet) keystore.Service {
	params := keystore.DefaultScryptParams()
	if cfg.LightScrypt {
		params = keystore.LightScryptParams()
	}

	return keystore.NewService(cfg.KeystorePath, params)
}

func Approver(cfg config.Wallet) wallet.Approver {
	if cfg.Approval == config.ApprovalAuto {
		return wallet.AutoApprove
	}

	return wallet.NewTerminalApprover(os.Stdin, os.Stderr)
}

// UnlockWallet decrypts the keystore with password and opens the configured account.
func UnlockWallet(ctx context.Context, cfg config.Server, password string) (*wallet.KeyWallet, error) {
	seedManager := seed.NewManager()
	addressService := address.NewService()

	if err := wallet.UnlockKeystore(ctx, KeystoreService(cfg.Wallet), seedManager, addressService, password); err != nil {
		return nil, err
	}

	w, err := wallet.OpenKeyWallet(seedManager, addressService, cfg.Wallet.AccountIndex, cfg.Chain.ID, Approver(cfg.Wallet))
	if err != nil {
		seedManager.Clear()
		return nil, err
	}

	log.Info().Str("address", w.Address().Hex()).Uint32("index", cfg.Wallet.AccountIndex).Msg("Wallet unlocked")

	return w, nil
}

// MetaNonceGateway allocates protocol nonces from the relay. db is only used
// by the postgres backend.
//
//nolint:ireturn // Returning interface is intentional, the backend is configurable
func MetaNonceGateway(cfg config.Server, s *api.Server, db *sql.DB) (transactions.NonceGateway, error) {
	switch cfg.Nonce.Backend {
	case config.BackendPostgres:
		if db == nil {
			return nil, errors.New("postgres nonce backend needs a database")
		}
		return nonce.NewPostgresGateway(db, cfg.Chain.ID, s.Relay), nil
	default:
		return nonce.NewGateway(s.Relay,
			nonce.WithPendingTracker(s.MetaQueue, transactions.KindMeta),
			nonce.WithReservationTTL(cfg.Nonce.ReservationTTL),
			nonce.WithClock(s.Clock),
		), nil
	}
}

// NativeNonceGateway allocates account nonces from the chain's pending state.
func NativeNonceGateway(cfg config.Server, s *api.Server) *nonce.Gateway {
	return nonce.NewGateway(nonce.NewChainSource(s.Chain),
		nonce.WithPendingTracker(s.NativeQueue, transactions.KindNative),
		nonce.WithReservationTTL(cfg.Nonce.ReservationTTL),
		nonce.WithClock(s.Clock),
	)
}

// NewPipelines wires both use cases. Results are reported to metaPresenter
// and payPresenter through presenter.Instrumented.
func NewPipelines(
	cfg config.Server,
	s *api.Server,
	metaNonces transactions.NonceGateway,
	metaPresenter transactions.Presenter,
	payPresenter transactions.Presenter,
) *Pipelines {
	active := wallet.NewActive()

	domain := calls.Domain{
		Name:    cfg.Domain.Name,
		Version: cfg.Domain.Version,
		ChainID: cfg.Chain.ID,
	}
	if cfg.Domain.VerifyingContract != "" {
		domain.VerifyingContract = common.HexToAddress(cfg.Domain.VerifyingContract)
	}

	callGateway := calls.NewGateway[api.MetaRequest](domain, calls.TypedRequestEncoder{},
		calls.WithCallTTL[api.MetaRequest](cfg.Domain.CallTTL),
		calls.WithClock[api.MetaRequest](s.Clock))

	meta := transactions.NewProtocolCallUseCase[api.MetaRequest](
		active,
		metaNonces,
		callGateway,
		relay.NewRelayer[api.MetaRequest](s.Relay, cfg.Chain.ID, s.Clock),
		s.MetaQueue,
		presenter.NewInstrumented(metaPresenter, s.Metrics, api.QueueMeta),
	)

	pay := transactions.NewPayTransactionUseCase[api.NativeRequest](
		active,
		selffunded.NewGateway[api.NativeRequest](cfg.Chain.ID, s.Chain, NativeNonceGateway(cfg, s), selffunded.TransferEncoder{}),
		relay.NewBroadcaster(s.Chain),
		s.NativeQueue,
		presenter.NewInstrumented(payPresenter, s.Metrics, api.QueueNative),
	)

	return &Pipelines{Active: active, Meta: meta, Pay: pay}
}

// RunReconcilers watches both queues until ctx is done.
func RunReconcilers(ctx context.Context, cfg config.Server, s *api.Server) {
	onSettled := func(summary transactions.Summary, outcome reconcile.Outcome) {
		s.Metrics.RecordReconciled(summary.Kind, string(outcome))
	}

	metaReconciler := reconcile.NewReconciler[api.MetaRequest](s.MetaQueue, s.Chain,
		reconcile.WithInterval(cfg.Reconcile.Interval),
		reconcile.WithHashResolver(s.Relay),
		reconcile.WithSettledHandler(onSettled),
	)
	nativeReconciler := reconcile.NewReconciler[api.NativeRequest](s.NativeQueue, s.Chain,
		reconcile.WithInterval(cfg.Reconcile.Interval),
		reconcile.WithSettledHandler(onSettled),
	)

	go func() {
		if err := metaReconciler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Meta reconciler stopped")
		}
	}()
	go func() {
		if err := nativeReconciler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Native reconciler stopped")
		}
	}()
}
