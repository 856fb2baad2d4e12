package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yieldLock/internal/model"
)

// Record is one JSONL line.
type Record struct {
	Type       string      `json:"type"`
	RecordedAt time.Time   `json:"recorded_at"`
	Data       interface{} `json:"data"`
}

const (
	RecordView  = "view"
	RecordEvent = "event"
)

// JsonlStorage appends views and events to a JSONL file.
type JsonlStorage struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path, now: func() time.Time { return time.Now().UTC() }}
}

// PutView appends one rendered view.
func (s *JsonlStorage) PutView(view model.View) error {
	return s.write([]Record{{Type: RecordView, RecordedAt: s.now(), Data: view}})
}

// PutEvents appends a batch of decoded contract events.
func (s *JsonlStorage) PutEvents(events []model.ContractEvent) error {
	if len(events) == 0 {
		return nil
	}
	recordedAt := s.now()
	records := make([]Record, 0, len(events))
	for _, event := range events {
		records = append(records, Record{Type: RecordEvent, RecordedAt: recordedAt, Data: event})
	}
	return s.write(records)
}

func (s *JsonlStorage) write(records []Record) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", record.Type, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write %s record: %w", record.Type, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
