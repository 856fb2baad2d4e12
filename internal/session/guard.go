package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"yieldLock/internal/failure"
)

// OwnerReader reads the contract owner.
type OwnerReader interface {
	Owner(ctx context.Context) (common.Address, error)
}

// AdminGuard gates administrative actions behind an owner match evaluated
// once at connect time. An ownership transfer during the session is not
// observed until the next connect.
type AdminGuard struct {
	account    common.Address
	owner      common.Address
	authorized bool
}

// EvaluateAdmin reads owner() and compares it to account case-insensitively.
func EvaluateAdmin(ctx context.Context, reader OwnerReader, account common.Address) (AdminGuard, error) {
	guard := AdminGuard{account: account}
	if reader == nil {
		return guard, fmt.Errorf("owner reader is nil")
	}
	owner, err := reader.Owner(ctx)
	if err != nil {
		return guard, fmt.Errorf("read owner: %w", err)
	}
	guard.owner = owner
	guard.authorized = strings.EqualFold(owner.Hex(), account.Hex())
	return guard, nil
}

// Authorized reports whether the session account is the contract owner.
func (g AdminGuard) Authorized() bool {
	return g.authorized
}

// Owner returns the owner read at connect time.
func (g AdminGuard) Owner() common.Address {
	return g.owner
}

// Require fails with NotAuthorized unless the session is the owner.
func (g AdminGuard) Require() error {
	if g.authorized {
		return nil
	}
	return failure.New(failure.NotAuthorized, "You are not authorized to perform this action")
}
