package wallet

import (
	"context"
	"sync"

	"github/chapool/go-txrelay/internal/transactions"
)

// Active holds the currently connected wallet, if any.
type Active struct {
	mu     sync.RWMutex
	wallet transactions.Wallet
}

var _ transactions.ActiveWallet = (*Active)(nil)

func NewActive() *Active {
	return &Active{}
}

// Connect replaces the current wallet with w.
func (a *Active) Connect(w transactions.Wallet) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.wallet = w
}

func (a *Active) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.wallet = nil
}

func (a *Active) Current() (transactions.Wallet, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.wallet, a.wallet != nil
}

func (a *Active) RequireActiveWallet(_ context.Context) (transactions.Wallet, error) {
	w, ok := a.Current()
	if !ok {
		return nil, transactions.NewWalletConnectionError(transactions.ReasonNotConnected, nil)
	}

	return w, nil
}
