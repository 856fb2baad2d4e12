package model

import "time"

// Severity of a status message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// StatusMessage is a transient, auto-dismissed notice.
type StatusMessage struct {
	Text      string    `json:"text"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionView is the displayed wallet identity.
type SessionView struct {
	Connected    bool   `json:"connected"`
	Account      string `json:"account,omitempty"`
	ShortAccount string `json:"short_account,omitempty"`
	Balance      string `json:"balance,omitempty"`
	ChainID      string `json:"chain_id,omitempty"`
	IsAdmin      bool   `json:"is_admin"`
}

// PoolView is a display-ready pool record.
type PoolView struct {
	ID           uint64 `json:"id"`
	StakingAsset string `json:"staking_asset"`
	AssetSymbol  string `json:"asset_symbol,omitempty"`
	APY          string `json:"apy"`
	LockDays     string `json:"lock_days"`
	TotalStaked  string `json:"total_staked"`
	RewardRate   string `json:"reward_rate"`
	Status       string `json:"status"`
	CanStake     bool   `json:"can_stake"`
}

// StakeView is a display-ready stake record.
type StakeView struct {
	PoolID         uint64    `json:"pool_id"`
	Amount         string    `json:"amount"`
	LockedUntil    time.Time `json:"locked_until"`
	PendingRewards string    `json:"pending_rewards"`
	Unlocked       bool      `json:"unlocked"`
	CanClaim       bool      `json:"can_claim"`
	CanUnstake     bool      `json:"can_unstake"`
}

// View is everything the presentation layer renders.
type View struct {
	Session    SessionView    `json:"session"`
	Pools      []PoolView     `json:"pools"`
	Stakes     []StakeView    `json:"stakes"`
	Status     *StatusMessage `json:"status,omitempty"`
	Busy       bool           `json:"busy"`
	RenderedAt time.Time      `json:"rendered_at"`
}
