package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provider is a wallet that grants account access and signs transactions.
type Provider interface {
	// RequestAccounts asks the wallet for account access. Implementations
	// return failure.ProviderUnavailable when no wallet is present and
	// failure.ConnectionDenied when the user declines.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Transactor returns signing options for account on chainID.
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// Approver asks the user to approve a transaction before it is signed.
type Approver func(account common.Address, tx *types.Transaction) bool

// AutoApprove approves every transaction.
func AutoApprove(common.Address, *types.Transaction) bool { return true }
