package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/config"
	"github/chapool/go-txrelay/internal/presenter"
	"github/chapool/go-txrelay/internal/relay"
	"github/chapool/go-txrelay/internal/transactions"
	"github/chapool/go-txrelay/internal/wallet"
	"github/chapool/go-txrelay/internal/wallet/address"
	"github/chapool/go-txrelay/internal/wallet/signer"
)

//nolint:dupword
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type fakeRelay struct {
	mu        sync.Mutex
	submitted []relay.SubmitRequest
	reject    string
	// rejectOnce rejects the next submission only.
	rejectOnce string
	nonceDown  bool
}

func (f *fakeRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/health":
		w.WriteHeader(http.StatusOK)
	case "/nonce":
		if f.nonceDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"reason": "nonce service down"})
			return
		}
		_ = json.NewEncoder(w).Encode(relay.NonceResponse{Nonce: 7})
	case "/submit":
		if f.rejectOnce != "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"reason": f.rejectOnce})
			f.rejectOnce = ""
			return
		}
		if f.reject != "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"reason": f.reject})
			return
		}
		var req relay.SubmitRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.submitted = append(f.submitted, req)
		_ = json.NewEncoder(w).Encode(relay.SubmitResponse{TxID: "relay-1"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRelay) requests() []relay.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]relay.SubmitRequest(nil), f.submitted...)
}

func setup(t *testing.T, fake *fakeRelay) (config.Server, *api.Server) {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Queue.Backend = config.BackendMemory
	cfg.Nonce.Backend = config.BackendMemory
	cfg.Relay.URL = srv.URL
	cfg.Chain.RPCURLs = []string{srv.URL}
	cfg.Wallet.KeystorePath = filepath.Join(t.TempDir(), "keystore.json")
	cfg.Wallet.LightScrypt = true
	cfg.Wallet.Approval = config.ApprovalAuto

	_, err := wallet.ImportKeystore(context.Background(), app.KeystoreService(cfg.Wallet), address.NewService(), testMnemonic, "correct horse")
	require.NoError(t, err)

	s, err := api.InitNewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown(context.Background()) })

	return cfg, s
}

func voteRequest() api.MetaRequest {
	return api.MetaRequest{
		Action:      "vote",
		PrimaryType: "Vote",
		Types: apitypes.Types{
			"Vote": {
				{Name: "proposal", Type: "uint256"},
				{Name: "support", Type: "bool"},
			},
		},
		Message: apitypes.TypedDataMessage{"proposal": "12", "support": true},
	}
}

func TestMetaPipeline(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRelay{}
	cfg, s := setup(t, fake)

	w, err := app.UnlockWallet(ctx, cfg, "correct horse")
	require.NoError(t, err)

	nonces, err := app.MetaNonceGateway(cfg, s, nil)
	require.NoError(t, err)

	metaPresenter := presenter.New()
	pipelines := app.NewPipelines(cfg, s, nonces, metaPresenter, presenter.New())
	pipelines.Active.Connect(w)

	pipelines.Meta.Execute(ctx, voteRequest())

	result, err := metaPresenter.Wait(ctx)
	require.NoError(t, err)
	require.True(t, result.IsSuccess(), result.String())

	requests := fake.requests()
	require.Len(t, requests, 1)
	submitted := requests[0]
	assert.Equal(t, uint64(7), submitted.Nonce)
	assert.Equal(t, w.Address(), submitted.From)

	recovered, err := signer.RecoverTypedDataSigner(submitted.TypedData, submitted.Signature)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), recovered)

	queued := s.MetaQueue.Snapshot()
	require.Len(t, queued, 1)
	assert.Equal(t, "relay-1", queued[0].RelayID)
	assert.Equal(t, transactions.Nonce(7), queued[0].Nonce)
}

func TestMetaPipelineWithoutWallet(t *testing.T) {
	ctx := context.Background()
	cfg, s := setup(t, &fakeRelay{})

	nonces, err := app.MetaNonceGateway(cfg, s, nil)
	require.NoError(t, err)

	metaPresenter := presenter.New()
	app.NewPipelines(cfg, s, nonces, metaPresenter, presenter.New()).Meta.Execute(ctx, voteRequest())

	result, err := metaPresenter.Wait(ctx)
	require.NoError(t, err)

	var connErr *transactions.WalletConnectionError
	require.ErrorAs(t, result.Err(), &connErr)
	assert.Equal(t, transactions.ReasonNotConnected, connErr.Reason)
	assert.Equal(t, 0, s.MetaQueue.Len())
}

func TestMetaPipelineRelayRejects(t *testing.T) {
	ctx := context.Background()
	cfg, s := setup(t, &fakeRelay{reject: "nonce already used"})

	w, err := app.UnlockWallet(ctx, cfg, "correct horse")
	require.NoError(t, err)

	nonces, err := app.MetaNonceGateway(cfg, s, nil)
	require.NoError(t, err)

	metaPresenter := presenter.New()
	pipelines := app.NewPipelines(cfg, s, nonces, metaPresenter, presenter.New())
	pipelines.Active.Connect(w)
	pipelines.Meta.Execute(ctx, voteRequest())

	result, err := metaPresenter.Wait(ctx)
	require.NoError(t, err)

	var broadcastErr *transactions.BroadcastingError
	require.ErrorAs(t, result.Err(), &broadcastErr)
	assert.Equal(t, "nonce already used", broadcastErr.Reason)
	assert.Equal(t, 0, s.MetaQueue.Len())
}

func TestMetaPipelineReusesNonceOfRejectedCall(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRelay{rejectOnce: "relay busy"}
	cfg, s := setup(t, fake)

	w, err := app.UnlockWallet(ctx, cfg, "correct horse")
	require.NoError(t, err)

	nonces, err := app.MetaNonceGateway(cfg, s, nil)
	require.NoError(t, err)

	first := presenter.New()
	pipelines := app.NewPipelines(cfg, s, nonces, first, presenter.New())
	pipelines.Active.Connect(w)
	pipelines.Meta.Execute(ctx, voteRequest())

	result, err := first.Wait(ctx)
	require.NoError(t, err)
	require.False(t, result.IsSuccess())

	second := presenter.New()
	pipelines = app.NewPipelines(cfg, s, nonces, second, presenter.New())
	pipelines.Active.Connect(w)
	pipelines.Meta.Execute(ctx, voteRequest())

	result, err = second.Wait(ctx)
	require.NoError(t, err)
	require.True(t, result.IsSuccess(), result.String())

	requests := fake.requests()
	require.Len(t, requests, 1)
	assert.Equal(t, uint64(7), requests[0].Nonce)
}

func TestMetaPipelineNonceFailureIsOpaque(t *testing.T) {
	ctx := context.Background()
	cfg, s := setup(t, &fakeRelay{nonceDown: true})

	w, err := app.UnlockWallet(ctx, cfg, "correct horse")
	require.NoError(t, err)

	nonces, err := app.MetaNonceGateway(cfg, s, nil)
	require.NoError(t, err)

	metaPresenter := presenter.New()
	pipelines := app.NewPipelines(cfg, s, nonces, metaPresenter, presenter.New())
	pipelines.Active.Connect(w)
	pipelines.Meta.Execute(ctx, voteRequest())

	result, err := metaPresenter.Wait(ctx)
	require.NoError(t, err)
	require.Error(t, result.Err())

	var broadcastErr *transactions.BroadcastingError
	assert.False(t, errors.As(result.Err(), &broadcastErr))
	assert.Equal(t, transactions.ErrorKindOpaque, transactions.Classify(result.Err()))
	assert.Contains(t, result.Err().Error(), "nonce service down")
}

func TestUnlockWalletWrongPassword(t *testing.T) {
	cfg, _ := setup(t, &fakeRelay{})

	_, err := app.UnlockWallet(context.Background(), cfg, "wrong password")
	require.Error(t, err)
}

func TestPostgresNonceBackendNeedsDB(t *testing.T) {
	cfg, s := setup(t, &fakeRelay{})
	cfg.Nonce.Backend = config.BackendPostgres

	_, err := app.MetaNonceGateway(cfg, s, nil)
	require.Error(t, err)
}
