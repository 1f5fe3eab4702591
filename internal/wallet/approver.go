package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// Prompt describes what the user is asked to sign.
type Prompt struct {
	From      common.Address
	TypedData *apitypes.TypedData
	Tx        *types.Transaction
}

// Summary renders the prompt as a single line.
func (p Prompt) Summary() string {
	switch {
	case p.TypedData != nil:
		return fmt.Sprintf("sign %s for %s (domain %s)", p.TypedData.PrimaryType, p.From.Hex(), p.TypedData.Domain.Name)
	case p.Tx != nil:
		to := "contract creation"
		if p.Tx.To() != nil {
			to = p.Tx.To().Hex()
		}
		return fmt.Sprintf("send transaction from %s to %s, value %s wei, nonce %d", p.From.Hex(), to, p.Tx.Value(), p.Tx.Nonce())
	default:
		return "sign request from " + p.From.Hex()
	}
}

// Approver stands in for the user. It returns false when the user declines.
type Approver interface {
	Approve(ctx context.Context, prompt Prompt) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, prompt Prompt) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// AutoApprove approves every prompt. Meant for headless services.
//
//nolint:gochecknoglobals
var AutoApprove = ApproverFunc(func(context.Context, Prompt) (bool, error) {
	return true, nil
})

// TerminalApprover asks on out and reads a y/N answer from in. Lines are read
// by a single goroutine so answers piped ahead of time are not lost between
// prompts, and a cancelled prompt leaves the reader to the next one.
type TerminalApprover struct {
	in  *bufio.Reader
	out io.Writer

	once    sync.Once
	answers chan answer
}

type answer struct {
	line string
	err  error
}

func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{
		in:      bufio.NewReader(in),
		out:     out,
		answers: make(chan answer),
	}
}

func (a *TerminalApprover) Approve(ctx context.Context, prompt Prompt) (bool, error) {
	a.once.Do(func() {
		go a.readAnswers()
	})

	if _, err := fmt.Fprintf(a.out, "%s\nApprove? [y/N]: ", prompt.Summary()); err != nil {
		return false, errors.Wrap(err, "failed to write prompt")
	}

	select {
	case <-ctx.Done():
		return false, errors.Wrap(ctx.Err(), "signing prompt abandoned")
	case res, ok := <-a.answers:
		if !ok {
			// input is closed, nobody can approve
			return false, nil
		}
		if res.err != nil {
			return false, errors.Wrap(res.err, "failed to read answer")
		}

		switch strings.ToLower(strings.TrimSpace(res.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

func (a *TerminalApprover) readAnswers() {
	defer close(a.answers)

	for {
		line, err := a.in.ReadString('\n')
		if line != "" {
			a.answers <- answer{line: line}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				a.answers <- answer{err: err}
			}
			return
		}
	}
}
