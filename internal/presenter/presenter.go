package presenter

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
)

// ResultPresenter captures the first result it is given.
type ResultPresenter struct {
	once   sync.Once
	done   chan struct{}
	result transactions.Result
}

var _ transactions.Presenter = (*ResultPresenter)(nil)

func New() *ResultPresenter {
	return &ResultPresenter{done: make(chan struct{})}
}

func (p *ResultPresenter) Present(result transactions.Result) {
	p.once.Do(func() {
		p.result = result
		close(p.done)
	})
}

// Wait blocks until Present was called or ctx is done.
func (p *ResultPresenter) Wait(ctx context.Context) (transactions.Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return transactions.Result{}, errors.Wrap(ctx.Err(), "no result presented")
	}
}

// Result returns the presented result, if any.
func (p *ResultPresenter) Result() (transactions.Result, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return transactions.Result{}, false
	}
}
