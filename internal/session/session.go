package session

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"yieldLock/internal/contract"
)

// State is the connectivity state of the wallet session.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Session is one authorized wallet connection. It is immutable once
// created; a new account or chain yields a new Session.
type Session struct {
	Epoch       uint64
	Account     common.Address
	ChainID     *big.Int
	Gateway     contract.Gateway
	Guard       AdminGuard
	ConnectedAt time.Time
}

// IsAdmin reports the cached owner match.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Guard.Authorized()
}
