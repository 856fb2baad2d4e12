package orchestrator

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"yieldLock/internal/model"
)

type flightKey struct {
	account common.Address
	poolID  uint64
	kind    model.TxKind
}

// inFlight enforces at most one unresolved transaction per
// (account, pool, kind).
type inFlight struct {
	mu   sync.Mutex
	keys map[flightKey]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{keys: make(map[flightKey]struct{})}
}

func (f *inFlight) reserve(key flightKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inFlight) release(key flightKey) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

func (f *inFlight) active(key flightKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}
