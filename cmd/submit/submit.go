package submit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/config"
	"github/chapool/go-txrelay/internal/presenter"
	"github/chapool/go-txrelay/internal/transactions"
	"github/chapool/go-txrelay/internal/util/command"
	"github/chapool/go-txrelay/internal/wallet"
)

const passwordEnv = "WALLET_PASSWORD"

func New() *cobra.Command {
	return command.NewSubcommandGroup("submit",
		newMeta(),
		newPay(),
	)
}

// session holds everything one submission needs. close releases the server
// components and locks the wallet again.
type session struct {
	server    *api.Server
	pipelines *app.Pipelines
	meta      *presenter.ResultPresenter
	pay       *presenter.ResultPresenter
	db        *sql.DB
}

func openSession(ctx context.Context, cfg config.Server) (*session, error) {
	// 1. build server components and restore pending transactions so nonces
	// already in flight are not reused
	s, err := api.InitNewServer(cfg)
	if err != nil {
		return nil, err
	}

	sess := &session{server: s, meta: presenter.New(), pay: presenter.New()}

	if err := s.RestoreQueues(ctx); err != nil {
		sess.close(ctx)
		return nil, err
	}

	// 2. nonce backend
	if cfg.Nonce.Backend == config.BackendPostgres {
		db, err := app.OpenDB(ctx, cfg.Database)
		if err != nil {
			sess.close(ctx)
			return nil, err
		}
		sess.db = db
	}

	metaNonces, err := app.MetaNonceGateway(cfg, s, sess.db)
	if err != nil {
		sess.close(ctx)
		return nil, err
	}

	// 3. unlock and connect the wallet
	password, ok := os.LookupEnv(passwordEnv)
	if !ok {
		password, err = wallet.PromptPassword("Enter keystore password: ")
		if err != nil {
			sess.close(ctx)
			return nil, err
		}
	}

	w, err := app.UnlockWallet(ctx, cfg, password)
	if err != nil {
		sess.close(ctx)
		return nil, err
	}

	sess.pipelines = app.NewPipelines(cfg, s, metaNonces, sess.meta, sess.pay)
	sess.pipelines.Active.Connect(w)

	return sess, nil
}

func (s *session) close(ctx context.Context) {
	if s.pipelines != nil {
		s.pipelines.Active.Disconnect()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}

	for _, err := range s.server.Shutdown(ctx) {
		log.Warn().Err(err).Msg("Failed to release server component")
	}
}

// report prints the result and the queued transaction and turns a failure
// into the command's error.
func report(ctx context.Context, p *presenter.ResultPresenter, s *api.Server) error {
	result, err := p.Wait(ctx)
	if err != nil {
		return err
	}

	var failure error
	result.Match(
		func() {
			summaries := s.Transactions()
			if len(summaries) == 0 {
				fmt.Fprintln(os.Stdout, "Submitted.")
				return
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(summaries[len(summaries)-1])
		},
		func(err error) {
			log.Error().Err(err).Str("kind", transactions.Classify(err).String()).Msg("Submission failed")
			failure = err
		},
	)

	return failure
}
