package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"yieldLock/internal/failure"
)

// KeystoreConfig configures a KeystoreProvider.
type KeystoreConfig struct {
	Dir        string
	Account    string
	Passphrase string
	Approver   Approver
}

// KeystoreProvider is a wallet backed by a go-ethereum keystore directory.
// Unlocking an account is the connection grant; a wrong or missing
// passphrase is a denied connection.
type KeystoreProvider struct {
	cfg    KeystoreConfig
	ks     *keystore.KeyStore
	logger *zap.Logger
}

func NewKeystoreProvider(cfg KeystoreConfig, logger *zap.Logger) *KeystoreProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Approver == nil {
		cfg.Approver = AutoApprove
	}
	return &KeystoreProvider{cfg: cfg, logger: logger}
}

// RequestAccounts unlocks the configured account, or the first account in
// the keystore when none is configured.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ks, err := p.open()
	if err != nil {
		return nil, err
	}

	acct, err := p.selectAccount(ks)
	if err != nil {
		return nil, err
	}

	if err := ks.Unlock(acct, p.cfg.Passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, failure.New(failure.ConnectionDenied, "wallet unlock was denied for %s", acct.Address.Hex())
		}
		return nil, &failure.Error{Kind: failure.ConnectionDenied, Reason: "wallet unlock failed", Err: err}
	}

	p.logger.Debug("keystore account unlocked", zap.String("account", acct.Address.Hex()))

	addresses := []common.Address{acct.Address}
	for _, other := range ks.Accounts() {
		if other.Address != acct.Address {
			addresses = append(addresses, other.Address)
		}
	}
	return addresses, nil
}

// Transactor returns options that ask the Approver before every signature.
func (p *KeystoreProvider) Transactor(_ context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	ks, err := p.open()
	if err != nil {
		return nil, err
	}
	if !ks.HasAddress(account) {
		return nil, failure.New(failure.ConnectionDenied, "account %s is not in the wallet", account.Hex())
	}
	acct := accounts.Account{Address: account}
	if err := ks.Unlock(acct, p.cfg.Passphrase); err != nil {
		return nil, &failure.Error{Kind: failure.ConnectionDenied, Reason: "wallet unlock failed", Err: err}
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(ks, acct, chainID)
	if err != nil {
		return nil, fmt.Errorf("keystore transactor: %w", err)
	}

	sign := opts.Signer
	approve := p.cfg.Approver
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if !approve(from, tx) {
			return nil, failure.ErrUserRejected
		}
		return sign(from, tx)
	}
	return opts, nil
}

func (p *KeystoreProvider) open() (*keystore.KeyStore, error) {
	if p.ks != nil {
		return p.ks, nil
	}
	if p.cfg.Dir == "" {
		return nil, failure.New(failure.ProviderUnavailable, "no wallet configured")
	}
	stat, err := os.Stat(p.cfg.Dir)
	if err != nil || !stat.IsDir() {
		return nil, failure.New(failure.ProviderUnavailable, "wallet keystore %s not found", p.cfg.Dir)
	}
	ks := keystore.NewKeyStore(p.cfg.Dir, keystore.StandardScryptN, keystore.StandardScryptP)
	if len(ks.Accounts()) == 0 {
		return nil, failure.New(failure.ProviderUnavailable, "wallet keystore %s has no accounts", p.cfg.Dir)
	}
	p.ks = ks
	return ks, nil
}

func (p *KeystoreProvider) selectAccount(ks *keystore.KeyStore) (accounts.Account, error) {
	all := ks.Accounts()
	if p.cfg.Account == "" {
		return all[0], nil
	}
	if !common.IsHexAddress(p.cfg.Account) {
		return accounts.Account{}, fmt.Errorf("invalid account: %s", p.cfg.Account)
	}
	want := common.HexToAddress(p.cfg.Account)
	for _, acct := range all {
		if acct.Address == want {
			return acct, nil
		}
	}
	return accounts.Account{}, failure.New(failure.ConnectionDenied, "account %s is not in the wallet", want.Hex())
}
