package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"yieldLock/internal/chain"
)

// Deployment locates the staking contract on a chain and binds signed
// gateways to it.
type Deployment struct {
	Address common.Address
	Client  *chain.Client
}

// ChainID returns the chain the deployment's node is serving.
func (d Deployment) ChainID(ctx context.Context) (*big.Int, error) {
	return d.Client.ChainID(ctx)
}

// BalanceAt returns the native balance of account.
func (d Deployment) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return d.Client.BalanceAt(ctx, account)
}

// Bind returns a gateway signing with auth. A nil auth yields a read-only
// handle.
func (d Deployment) Bind(auth *bind.TransactOpts) (Gateway, error) {
	return NewEthGateway(d.Address, d.Client, d.Client.Backend(), auth)
}
