package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// TrackingRecord is one extracted shipment. Records are never mutated
// after creation and never deduplicated across runs: a periodic rescan
// that re-finds a message simply appends the same record again.
type TrackingRecord struct {
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Destination    string    `json:"destination,omitempty"`
	Sender         string    `json:"sender"`
	Timestamp      time.Time `json:"timestamp"`
}

// FileStore appends records to a JSON-lines file, one object per line.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

// Append writes records to the end of the file, creating it if needed.
// Not transactional: a crash mid-append may leave a partial batch, which
// the next scan tolerates by re-finding the source messages.
func (s *FileStore) Append(records []TrackingRecord) error {
	if len(records) == 0 {
		return nil
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return fmt.Errorf("encode record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush record store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close record store: %w", err)
	}
	return nil
}

// ReadAll loads every record currently in the store. A store that does
// not exist yet reads as empty.
func (s *FileStore) ReadAll() ([]TrackingRecord, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	defer f.Close()

	var records []TrackingRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r TrackingRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parse record store %s: %w", s.Path, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read record store: %w", err)
	}
	return records, nil
}
