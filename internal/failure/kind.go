package failure

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classifications surfaced to users.
type Kind int

const (
	UnknownTransactionError Kind = iota
	ConnectionDenied
	ProviderUnavailable
	ValidationError
	NotAuthorized
	UserRejectedTransaction
	InsufficientFunds
	ExecutionReverted
	Timeout
)

var kindNames = map[Kind]string{
	UnknownTransactionError: "UnknownTransactionError",
	ConnectionDenied:        "ConnectionDenied",
	ProviderUnavailable:     "ProviderUnavailable",
	ValidationError:         "ValidationError",
	NotAuthorized:           "NotAuthorized",
	UserRejectedTransaction: "UserRejectedTransaction",
	InsufficientFunds:       "InsufficientFunds",
	ExecutionReverted:       "ExecutionReverted",
	Timeout:                 "Timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrUserRejected is returned by wallet signers when the user declines a prompt.
var ErrUserRejected = errors.New("user rejected transaction")

// Error is a classified failure. Reason holds the ledger-supplied revert
// reason or a user-readable detail; Err keeps the underlying cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

// New builds a classified error with a formatted reason.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case UserRejectedTransaction:
		return "Transaction was rejected"
	case InsufficientFunds:
		return "Insufficient funds for transaction"
	case ExecutionReverted:
		if e.Reason != "" {
			return e.Reason
		}
		return "Transaction failed - check contract conditions"
	case Timeout:
		if e.Reason != "" {
			return e.Reason
		}
		return "Confirmation timed out - status will update on next refresh"
	case NotAuthorized:
		if e.Reason != "" {
			return e.Reason
		}
		return "You are not authorized to perform this action"
	case ProviderUnavailable:
		if e.Reason != "" {
			return e.Reason
		}
		return "No wallet available"
	case ConnectionDenied:
		if e.Reason != "" {
			return e.Reason
		}
		return "Wallet connection was denied"
	}
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Unknown error occurred"
}

// KindOf reports the kind of err, or UnknownTransactionError when err is not
// classified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return UnknownTransactionError
}
