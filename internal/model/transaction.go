package model

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TxKind enumerates the orchestrated write actions.
type TxKind string

const (
	TxStake      TxKind = "stake"
	TxUnstake    TxKind = "unstake"
	TxClaim      TxKind = "claim"
	TxCreatePool TxKind = "create_pool"
	TxPause      TxKind = "pause"
	TxUnpause    TxKind = "unpause"
)

// AdminOnly reports whether the kind requires the contract owner.
func (k TxKind) AdminOnly() bool {
	switch k {
	case TxCreatePool, TxPause, TxUnpause:
		return true
	default:
		return false
	}
}

// TxStatus is the lifecycle state of a PendingTransaction.
type TxStatus string

const (
	TxSubmitted TxStatus = "submitted"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// NoPool marks transactions without a target pool (createPool).
const NoPool uint64 = math.MaxUint64

// PendingTransaction tracks a single orchestrated write.
type PendingTransaction struct {
	ID          string         `json:"id"`
	Kind        TxKind         `json:"kind"`
	PoolID      uint64         `json:"pool_id"`
	Account     common.Address `json:"account"`
	Hash        common.Hash    `json:"hash"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Status      TxStatus       `json:"status"`
}
