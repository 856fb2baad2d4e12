package storage

import "yieldLock/internal/model"

// Sink records rendered views and observed contract events.
type Sink interface {
	PutView(view model.View) error
	PutEvents(events []model.ContractEvent) error
}
