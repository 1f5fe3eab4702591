package transactions

import (
	"fmt"

	"github.com/pkg/errors"
)

// SigningError is the closed set of failures a Wallet may report:
// *PendingSigningRequestError, *WalletConnectionError and *UserRejectedError.
type SigningError interface {
	error
	signingError()
}

// PendingSigningRequestError is returned when the wallet is still waiting on
// the user for an earlier prompt.
type PendingSigningRequestError struct{}

func (*PendingSigningRequestError) Error() string {
	return "a signing request is already pending in the wallet"
}

func (*PendingSigningRequestError) signingError() {}

type WalletConnectionReason string

const (
	ReasonNotConnected   WalletConnectionReason = "not_connected"
	ReasonWrongAccount   WalletConnectionReason = "wrong_account"
	ReasonIncorrectChain WalletConnectionReason = "incorrect_chain"
	ReasonDisconnected   WalletConnectionReason = "disconnected"
)

type WalletConnectionError struct {
	Reason WalletConnectionReason
	cause  error
}

func NewWalletConnectionError(reason WalletConnectionReason, cause error) *WalletConnectionError {
	return &WalletConnectionError{Reason: reason, cause: cause}
}

func (e *WalletConnectionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("wallet connection error (%s): %v", e.Reason, e.cause)
	}

	return fmt.Sprintf("wallet connection error (%s)", e.Reason)
}

func (e *WalletConnectionError) Unwrap() error {
	return e.cause
}

func (*WalletConnectionError) signingError() {}

// UserRejectedError is returned when the user declined the signing prompt.
type UserRejectedError struct{}

func (*UserRejectedError) Error() string {
	return "user rejected the signing request"
}

func (*UserRejectedError) signingError() {}

// BroadcastingError means the relay or node did not accept the transaction.
// Reason is the human readable message reported by the remote side.
type BroadcastingError struct {
	Reason string
	cause  error
}

func NewBroadcastingError(reason string) *BroadcastingError {
	return &BroadcastingError{Reason: reason}
}

func (e *BroadcastingError) Error() string {
	return "failed to broadcast transaction: " + e.Reason
}

func (e *BroadcastingError) Unwrap() error {
	return e.cause
}

// AsBroadcastingError returns the *BroadcastingError inside err, or a new one
// carrying err's message.
func AsBroadcastingError(err error) *BroadcastingError {
	if err == nil {
		return nil
	}

	var broadcastErr *BroadcastingError
	if errors.As(err, &broadcastErr) {
		return broadcastErr
	}

	return &BroadcastingError{Reason: err.Error(), cause: err}
}

// InsufficientGasError is returned on the self-funded path when the wallet
// cannot pay for gas.
type InsufficientGasError struct {
	cause error
}

func NewInsufficientGasError(cause error) *InsufficientGasError {
	return &InsufficientGasError{cause: cause}
}

func (e *InsufficientGasError) Error() string {
	if e.cause != nil {
		return "insufficient funds for gas: " + e.cause.Error()
	}

	return "insufficient funds for gas"
}

func (e *InsufficientGasError) Unwrap() error {
	return e.cause
}

// asSigningError keeps wallet failures inside the SigningError set.
func asSigningError(err error) error {
	var signingErr SigningError
	if errors.As(err, &signingErr) {
		return err
	}

	return NewWalletConnectionError(ReasonDisconnected, err)
}

type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	// ErrorKindUser is a failure caused by the user, such as declining a prompt.
	ErrorKindUser
	// ErrorKindWalletState can be fixed by the user (reconnect, switch account, top up) before resubmitting.
	ErrorKindWalletState
	// ErrorKindInfrastructure is a relay or node failure.
	ErrorKindInfrastructure
	// ErrorKindOpaque is anything else, e.g. nonce or call construction failures.
	ErrorKindOpaque
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindUser:
		return "user"
	case ErrorKindWalletState:
		return "wallet_state"
	case ErrorKindInfrastructure:
		return "infrastructure"
	case ErrorKindOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

func Classify(err error) ErrorKind {
	var (
		rejected     *UserRejectedError
		pending      *PendingSigningRequestError
		connection   *WalletConnectionError
		insufficient *InsufficientGasError
		broadcast    *BroadcastingError
	)

	switch {
	case err == nil:
		return ErrorKindNone
	case errors.As(err, &rejected):
		return ErrorKindUser
	case errors.As(err, &pending), errors.As(err, &connection), errors.As(err, &insufficient):
		return ErrorKindWalletState
	case errors.As(err, &broadcast):
		return ErrorKindInfrastructure
	default:
		return ErrorKindOpaque
	}
}
