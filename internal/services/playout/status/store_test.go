package status

import (
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")
	s := New(path, nil)

	if err := s.Write(12.5, "2026-08-01"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	shift, date, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if shift != 12.5 || date != "2026-08-01" {
		t.Fatalf("got (%v, %q), want (12.5, 2026-08-01)", shift, date)
	}
}

func TestReadMissingFileSeedsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.json")
	s := New(path, nil)

	shift, date, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if shift != 0 || date != "" {
		t.Fatalf("got (%v, %q), want defaults (0, \"\")", shift, date)
	}

	if _, _, statErr := s.Read(); statErr != nil {
		t.Fatalf("second Read: %v", statErr)
	}
}

func TestWriteToUnwritableDirDegradesInsteadOfErroring(t *testing.T) {
	s := New("/nonexistent-dir-for-playout-test/status.json", nil)

	if err := s.Write(1, "2026-08-01"); err != nil {
		t.Fatalf("Write should degrade rather than error, got %v", err)
	}
	if !s.degraded {
		t.Fatal("expected store to report degraded after persistent write failure")
	}
}
