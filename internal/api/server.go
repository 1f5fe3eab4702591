package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"

	"github.com/dropbox/godropbox/time2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/chain"
	"github/chapool/go-txrelay/internal/config"
	"github/chapool/go-txrelay/internal/gateway/calls"
	"github/chapool/go-txrelay/internal/gateway/selffunded"
	"github/chapool/go-txrelay/internal/metrics"
	"github/chapool/go-txrelay/internal/relay"
	"github/chapool/go-txrelay/internal/transactions"
)

type (
	// MetaRequest is the payload of protocol calls handed to the relay.
	MetaRequest = calls.TypedRequest
	// NativeRequest is the payload of self-funded transfers broadcast by the wallet.
	NativeRequest = selffunded.Transfer

	MetaQueue   = transactions.Queue[MetaRequest]
	NativeQueue = transactions.Queue[NativeRequest]
)

type Router struct {
	Routes            []*echo.Route
	Root              *echo.Group
	Management        *echo.Group
	APIV1Transactions *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`
	// -> opened by the caller when nonce.backend is postgres
	DB *sql.DB `wire:"-"`

	Config      config.Server
	Clock       time2.Clock
	Metrics     *metrics.Metrics
	Redis       *redis.Client // nil unless queue.backend is redis
	MetaQueue   *MetaQueue
	NativeQueue *NativeQueue
	Relay       *relay.Client
	Chain       *chain.RPCClient
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	clock time2.Clock,
	m *metrics.Metrics,
	redisClient *redis.Client,
	metaQueue *MetaQueue,
	nativeQueue *NativeQueue,
	relayClient *relay.Client,
	chainClient *chain.RPCClient,
) *Server {
	return &Server{
		Config:      cfg,
		Clock:       clock,
		Metrics:     m,
		Redis:       redisClient,
		MetaQueue:   metaQueue,
		NativeQueue: nativeQueue,
		Relay:       relayClient,
		Chain:       chainClient,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	if s.Echo == nil || s.Router == nil || s.Metrics == nil || s.MetaQueue == nil ||
		s.NativeQueue == nil || s.Relay == nil || s.Chain == nil {
		log.Debug().Msg("Server is not fully initialized")
		return false
	}

	return true
}

// Transactions lists both queues, oldest first.
func (s *Server) Transactions() []transactions.Summary {
	summaries := append(s.MetaQueue.Summaries(), s.NativeQueue.Summaries()...)
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].SubmittedAt.Before(summaries[j].SubmittedAt)
	})

	return summaries
}

func (s *Server) Transaction(id uuid.UUID) (transactions.Summary, bool) {
	if summary, ok := s.MetaQueue.SummaryByID(id); ok {
		return summary, true
	}

	return s.NativeQueue.SummaryByID(id)
}

// RestoreQueues reloads both queues from their stores.
func (s *Server) RestoreQueues(ctx context.Context) error {
	metaCount, err := s.MetaQueue.Restore(ctx)
	if err != nil {
		return err
	}

	nativeCount, err := s.NativeQueue.Restore(ctx)
	if err != nil {
		return err
	}

	s.Metrics.SetQueueLength(QueueMeta, metaCount)
	s.Metrics.SetQueueLength(QueueNative, nativeCount)

	log.Info().Int("meta", metaCount).Int("native", nativeCount).Msg("Restored transaction queues")

	return nil
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return err //nolint:wrapcheck // http.ErrServerClosed is checked by the caller
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Chain != nil {
		log.Debug().Msg("Closing RPC clients")
		s.Chain.Close()
	}

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")

		if err := s.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	if s.Redis != nil {
		log.Debug().Msg("Closing redis connection")

		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis connection")
			errs = append(errs, err)
		}
	}

	return errs
}
