package loader

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeManifest(t *testing.T, root, date string) string {
	t.Helper()
	tm, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(root, tm.Format("2006"), tm.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, tm.Format("02")+".json")
	manifest := rawManifest{
		Date: date,
		Program: []rawProgramRow{
			{In: 0, Out: 600, Duration: 600, Source: "clip1.mp4"},
			{In: 0, Out: 300, Duration: 300, Source: "clip2.mp4"},
		},
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLocalManifestAssignsBegin(t *testing.T) {
	root := t.TempDir()
	date := "2026-08-01"
	writeManifest(t, root, date)

	cfg := Config{Root: root, DayStartSec: 21600, DayLengthSec: 86400, DummyLenSec: 20}
	l := New(cfg, nil, nil, nil)
	fixed := mustParse(t, date+"T12:00:00Z")
	l.Now = func() time.Time { return fixed }

	pl, err := l.Load(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !pl.HasSource() {
		t.Fatal("expected a resolved manifest, got fill mode")
	}
	if len(pl.Program) != 2 {
		t.Fatalf("got %d program items, want 2", len(pl.Program))
	}
	if pl.Program[0].BeginSec() != 21600 {
		t.Fatalf("item 0 begin = %v, want 21600", pl.Program[0].BeginSec())
	}
	if pl.Program[1].BeginSec() != 22200 {
		t.Fatalf("item 1 begin = %v, want 22200", pl.Program[1].BeginSec())
	}
}

func TestLoadMissingManifestFallsBackToFillMode(t *testing.T) {
	root := t.TempDir()
	cfg := Config{Root: root, DayStartSec: 21600, DayLengthSec: 86400, DummyLenSec: 20}
	l := New(cfg, nil, nil, nil)

	pl, err := l.Load(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pl.HasSource() {
		t.Fatal("expected fill mode for a missing manifest")
	}
	if len(pl.Program) != 1 {
		t.Fatalf("got %d program items, want 1 dummy", len(pl.Program))
	}
}

func TestLoadCancelledContextShortCircuits(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "2026-08-01")
	cfg := Config{Root: root, DayStartSec: 21600, DayLengthSec: 86400, DummyLenSec: 20}
	l := New(cfg, nil, nil, nil)
	l.Now = func() time.Time { return mustParse(t, "2026-08-01T12:00:00Z") }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pl, err := l.Load(ctx, "", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pl.HasSource() {
		t.Fatal("expected cancellation to short-circuit to fill mode")
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}
