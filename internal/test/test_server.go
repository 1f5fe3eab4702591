package test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/api/router"
	"github/chapool/go-txrelay/internal/config"
)

// WithTestServer runs closure against a fully wired server. Relay and chain
// point at a stub that answers /health, queues are kept in memory.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer stub.Close()

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Queue.Backend = config.BackendMemory
	cfg.Relay.URL = stub.URL
	cfg.Chain.RPCURLs = []string{stub.URL}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	router.Init(s)

	closure(s)

	s.Shutdown(t.Context())
}

// PerformRequest runs method path against the echo instance of s.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body io.Reader, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}
