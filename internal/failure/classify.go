package failure

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const revertPrefix = "execution reverted"

// Classify maps any error from the wallet, node or contract into a classified
// Error. A ledger-supplied revert reason wins over text matching; unmatched
// errors keep their raw text as UnknownTransactionError.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(Timeout, err)
	}
	if errors.Is(err, ErrUserRejected) {
		return Wrap(UserRejectedTransaction, err)
	}

	if reason, ok := revertReason(err); ok {
		return &Error{Kind: ExecutionReverted, Reason: reason, Err: err}
	}

	text := err.Error()
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "user rejected"), strings.Contains(lower, "user denied"):
		return Wrap(UserRejectedTransaction, err)
	case strings.Contains(lower, "insufficient funds"):
		return Wrap(InsufficientFunds, err)
	case strings.Contains(lower, revertPrefix):
		return &Error{Kind: ExecutionReverted, Reason: reasonFromText(text), Err: err}
	}

	return &Error{Kind: UnknownTransactionError, Reason: text, Err: err}
}

// revertReason extracts an Error(string) payload carried by a JSON-RPC error.
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok || hexData == "" {
		return "", false
	}
	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil || reason == "" {
		return "", false
	}
	return reason, true
}

func reasonFromText(text string) string {
	idx := strings.Index(strings.ToLower(text), revertPrefix+":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len(revertPrefix)+1:])
}
