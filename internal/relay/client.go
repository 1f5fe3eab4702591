package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
)

const maxErrorBody = 4096

// StatusError is a non-2xx answer of the relay.
type StatusError struct {
	Method string
	Path   string
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay %s %s responded with status %d: %s", e.Method, e.Path, e.Status, e.Reason)
}

// Client talks to the relay's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit posts a signed call. A rejection by the relay is returned as a
// *transactions.BroadcastingError carrying the relay's reason.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode submit request")
	}

	var res SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/submit", nil, bytes.NewReader(body), &res); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, transactions.NewBroadcastingError(statusErr.Reason)
		}
		return nil, err
	}

	if res.TxID == "" {
		return nil, transactions.NewBroadcastingError("relay returned no transaction id")
	}

	return &res, nil
}

// NonceAt returns the next meta-transaction nonce the relay expects from address.
func (c *Client) NonceAt(ctx context.Context, address common.Address) (transactions.Nonce, error) {
	var res NonceResponse
	query := url.Values{"address": []string{address.Hex()}}
	if err := c.do(ctx, http.MethodGet, "/nonce", query, nil, &res); err != nil {
		return 0, err
	}

	return transactions.Nonce(res.Nonce), nil
}

// ResolveHash looks up the on-chain hash of a relayed call. found is false
// while the relay has not broadcast it yet.
func (c *Client) ResolveHash(ctx context.Context, relayID string) (common.Hash, bool, error) {
	var res TransactionResponse
	query := url.Values{"id": []string{relayID}}
	if err := c.do(ctx, http.MethodGet, "/transaction", query, nil, &res); err != nil {
		return common.Hash{}, false, err
	}

	if res.TxHash == "" {
		return common.Hash{}, false, nil
	}

	return common.HexToHash(res.TxHash), true, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrapf(err, "failed to create relay request %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "relay request %s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Reason: readReason(resp)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode relay response for %s %s", method, path)
	}

	return nil
}

func readReason(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Reason != "" {
		return body.Reason
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}

	return fmt.Sprintf("relay responded with status %d", resp.StatusCode)
}
