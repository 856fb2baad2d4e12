// Package wallettest provides a scripted wallet for tests.
package wallettest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Provider grants a fixed set of accounts.
type Provider struct {
	mu          sync.Mutex
	Accounts    []common.Address
	RequestErr  error
	TransactErr error
	requests    int
}

func (p *Provider) RequestAccounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if p.RequestErr != nil {
		return nil, p.RequestErr
	}
	return append([]common.Address(nil), p.Accounts...), nil
}

func (p *Provider) Transactor(_ context.Context, account common.Address, _ *big.Int) (*bind.TransactOpts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TransactErr != nil {
		return nil, p.TransactErr
	}
	return &bind.TransactOpts{From: account}, nil
}

// Requests returns how many times account access was requested.
func (p *Provider) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
