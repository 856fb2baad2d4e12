package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"yieldLock/internal/model"
)

// EventDecoder decodes staking contract logs.
type EventDecoder struct {
	events map[common.Hash]abi.Event
}

// NewEventDecoder builds a decoder for Staked, Unstaked, RewardsClaimed and
// PoolCreated.
func NewEventDecoder() (*EventDecoder, error) {
	parsed, err := YieldLockABI()
	if err != nil {
		return nil, fmt.Errorf("parse yieldlock abi: %w", err)
	}

	events := make(map[common.Hash]abi.Event)
	for _, name := range []string{model.EventStaked, model.EventUnstaked, model.EventRewardsClaimed, model.EventPoolCreated} {
		ev, ok := parsed.Events[name]
		if !ok {
			return nil, fmt.Errorf("abi missing event %s", name)
		}
		events[ev.ID] = ev
	}
	return &EventDecoder{events: events}, nil
}

// Topics returns the topic0 hashes the decoder understands.
func (d *EventDecoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.events))
	for id := range d.events {
		topics = append(topics, id)
	}
	return topics
}

// CanDecode reports whether topic0 belongs to a known event.
func (d *EventDecoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.events[topic0]
	return ok
}

// Decode converts a raw log into a ContractEvent.
func (d *EventDecoder) Decode(log types.Log) (model.ContractEvent, error) {
	if len(log.Topics) == 0 {
		return model.ContractEvent{}, fmt.Errorf("missing topic0")
	}
	ev, ok := d.events[log.Topics[0]]
	if !ok {
		return model.ContractEvent{}, fmt.Errorf("unknown topic0 %s", log.Topics[0].Hex())
	}

	out := model.ContractEvent{
		Name:        ev.Name,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
	}

	values, err := ev.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.ContractEvent{}, fmt.Errorf("unpack %s: %w", ev.Name, err)
	}

	if ev.Name == model.EventPoolCreated {
		if len(log.Topics) < 2 {
			return model.ContractEvent{}, fmt.Errorf("%s: expected 2 topics, got %d", ev.Name, len(log.Topics))
		}
		if len(values) < 3 {
			return model.ContractEvent{}, fmt.Errorf("%s: expected 3 values, got %d", ev.Name, len(values))
		}
		poolID, err := asUint64(new(big.Int).SetBytes(log.Topics[1].Bytes()), "pool id")
		if err != nil {
			return model.ContractEvent{}, err
		}
		asset, err := asAddress(values[0])
		if err != nil {
			return model.ContractEvent{}, fmt.Errorf("lp token: %w", err)
		}
		rewardRate, err := asBigInt(values[1])
		if err != nil {
			return model.ContractEvent{}, fmt.Errorf("reward rate: %w", err)
		}
		lockDuration, err := asBigInt(values[2])
		if err != nil {
			return model.ContractEvent{}, fmt.Errorf("lock duration: %w", err)
		}
		lockSeconds, err := asUint64(lockDuration, "lock duration")
		if err != nil {
			return model.ContractEvent{}, err
		}
		out.PoolID = poolID
		out.PoolCreated = &model.PoolCreatedData{
			StakingAsset: asset,
			RewardRate:   rewardRate,
			LockDuration: lockSeconds,
		}
		return out, nil
	}

	if len(log.Topics) < 3 {
		return model.ContractEvent{}, fmt.Errorf("%s: expected 3 topics, got %d", ev.Name, len(log.Topics))
	}
	if len(values) < 1 {
		return model.ContractEvent{}, fmt.Errorf("%s: missing amount", ev.Name)
	}
	poolID, err := asUint64(new(big.Int).SetBytes(log.Topics[2].Bytes()), "pool id")
	if err != nil {
		return model.ContractEvent{}, err
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return model.ContractEvent{}, fmt.Errorf("amount: %w", err)
	}
	out.User = common.BytesToAddress(log.Topics[1].Bytes())
	out.PoolID = poolID
	out.Amount = amount
	return out, nil
}
