// Package status persists the scheduler's {time_shift, date} pair across
// restarts. A write failure degrades the store to memory-only instead of
// taking the playout down with it.
package status

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type record struct {
	TimeShift float64 `json:"time_shift"`
	Date      string  `json:"date"`
}

// Store is a JSON file backed implementation of ports.StatusStore.
type Store struct {
	path string
	log  *slog.Logger

	mu       sync.Mutex
	degraded bool
	memory   record
}

func New(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{path: path, log: log}
}

// Read loads the status file, writing defaults if it is absent. Any
// read/parse failure also falls back to defaults rather than failing
// startup.
func (s *Store) Read() (float64, string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := s.Write(0, ""); werr != nil {
				s.log.Warn("status store: could not seed defaults", "error", werr)
			}
			return 0, "", nil
		}
		s.log.Error("status store: read failed, using defaults", "path", s.path, "error", err)
		return 0, "", nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Error("status store: malformed status file, using defaults", "path", s.path, "error", err)
		return 0, "", nil
	}
	return rec.TimeShift, rec.Date, nil
}

// Write persists the pair via write-to-temp-then-rename so a crash
// mid-write never leaves a truncated file behind. On persistent failure
// it logs and keeps the last-known value in memory instead of returning
// an error the caller must treat as fatal.
func (s *Store) Write(timeShift float64, date string) error {
	rec := record{TimeShift: timeShift, Date: date}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.atomicWrite(data); err != nil {
		s.log.Error("status store: persistent write failure, degrading to memory-only", "path", s.path, "error", err)
		s.degraded = true
		s.memory = rec
		return nil
	}
	if s.degraded {
		s.log.Info("status store: write succeeded, leaving memory-only mode")
		s.degraded = false
	}
	return nil
}

func (s *Store) atomicWrite(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".status-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}
