package iterator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"playoutd/internal/domain"
	"playoutd/internal/services/playout/clock"
)

type fakeLoader struct {
	playlist domain.Playlist
	err      error
	calls    int
}

func (f *fakeLoader) Load(ctx context.Context, pathOverride string, nextStart float64) (domain.Playlist, error) {
	f.calls++
	return f.playlist, f.err
}

type fakeStatusStore struct {
	timeShift float64
	date      string
}

func (f *fakeStatusStore) Read() (float64, string, error) { return f.timeShift, f.date, nil }
func (f *fakeStatusStore) Write(timeShift float64, date string) error {
	f.timeShift = timeShift
	f.date = date
	return nil
}

type alwaysValid struct{}

func (alwaysValid) Validate(string) bool { return true }

type recordingBuilder struct{}

func (recordingBuilder) Build(source string, seek, out, duration float64) []string {
	return []string{"play", source}
}

// newTestIterator wires an Iterator whose playlist file is a real,
// untouched file on disk: check_update's mtime comparison then finds
// nothing changed on every call, so the test can drive Next() across
// a sequence without an incidental reload wiping player state.
func newTestIterator(t *testing.T, cfg Config, program []domain.Media) (*Iterator, *domain.PlayerControl, *domain.PlayoutStatus) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playlist.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed playlist file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat seed playlist file: %v", err)
	}

	player := domain.NewPlayerControl()
	status := domain.NewPlayoutStatus(0, "")
	proc := domain.NewProcessControl()
	loader := &fakeLoader{playlist: domain.Playlist{
		Program:     program,
		StartSec:    cfg.DayStartSec,
		CurrentFile: path,
		Modified:    info.ModTime().String(),
	}}
	store := &fakeStatusStore{}

	it := New(cfg, loader, store, alwaysValid{}, recordingBuilder{}, player, status, proc, slog.Default())
	_ = it.Bootstrap(context.Background())
	return it, player, status
}

func atSecOfDay(t *testing.T, sec float64) {
	t.Helper()
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := int(sec) % 60
	clock.Now = func() time.Time {
		return time.Date(2026, 8, 1, h, m, s, 0, time.UTC)
	}
	t.Cleanup(func() { clock.Now = time.Now })
}

func threeItemProgram(startSec float64) []domain.Media {
	p := domain.Playlist{
		StartSec: startSec,
		Program: []domain.Media{
			{Index: 0, Source: "a.mp4", Seek: 0, Out: 600, Duration: 600},
			{Index: 1, Source: "b.mp4", Seek: 0, Out: 300, Duration: 300},
			{Index: 2, Source: "c.mp4", Seek: 0, Out: 900, Duration: 900},
		},
	}
	p.AssignBegin()
	return p.Program
}

func TestNormalPlayback(t *testing.T) {
	program := threeItemProgram(21600)
	cfg := Config{DayStartSec: 21600, DayLengthSec: 86400, SyncThresholdSec: 5, StopThresholdSec: 2, DummyLenSec: 20, Bounded: false}
	it, _, _ := newTestIterator(t, cfg, program)

	atSecOfDay(t, 21650)

	m0 := it.Next(context.Background())
	if m0.Seek != 50 || m0.Out != 600 {
		t.Fatalf("item0: seek=%v out=%v, want seek=50 out=600", m0.Seek, m0.Out)
	}
	if m0.Process == nil || !*m0.Process {
		t.Fatal("item0: expected process=true")
	}

	m1 := it.Next(context.Background())
	if m1.Seek != 0 || m1.Out != 300 {
		t.Fatalf("item1: seek=%v out=%v, want seek=0 out=300", m1.Seek, m1.Out)
	}

	m2 := it.Next(context.Background())
	if m2.Index != 2 {
		t.Fatalf("item2 index = %v, want 2", m2.Index)
	}
}

func TestInitMidClip(t *testing.T) {
	program := threeItemProgram(21600)
	cfg := Config{DayStartSec: 21600, DayLengthSec: 86400, SyncThresholdSec: 5, StopThresholdSec: 2, DummyLenSec: 20}
	it, _, status := newTestIterator(t, cfg, program)
	status.SetListInit(true)

	atSecOfDay(t, 22300)

	m := it.Next(context.Background())
	if m.Index != 1 {
		t.Fatalf("index = %d, want 1", m.Index)
	}
	if m.Seek != 100 {
		t.Fatalf("seek = %v, want 100", m.Seek)
	}
}

func TestShortPlaylistFill(t *testing.T) {
	p := domain.Playlist{StartSec: 0, Program: []domain.Media{
		{Index: 0, Source: "a.mp4", Seek: 0, Out: 1800, Duration: 1800},
	}}
	p.AssignBegin()
	cfg := Config{DayStartSec: 0, DayLengthSec: 86400, SyncThresholdSec: 5, StopThresholdSec: 2, DummyLenSec: 20, Bounded: false}
	it, player, status := newTestIterator(t, cfg, p.Program)
	status.SetListInit(false)
	player.SetIndex(1) // already past the single item

	atSecOfDay(t, 3600) // well short of day end

	m := it.Next(context.Background())
	if m.Duration > cfg.DummyLenSec {
		t.Fatalf("dummy duration = %v, want <= %v", m.Duration, cfg.DummyLenSec)
	}
	if m.Process == nil || !*m.Process {
		t.Fatal("expected filler to be marked for processing")
	}
}

func TestAdNeighborFlags(t *testing.T) {
	p := domain.Playlist{StartSec: 0, Program: []domain.Media{
		{Index: 0, Source: "a.mp4", Out: 100, Duration: 100, Category: "advertisement"},
		{Index: 1, Source: "b.mp4", Out: 100, Duration: 100},
		{Index: 2, Source: "c.mp4", Out: 100, Duration: 100, Category: "advertisement"},
	}}
	p.AssignBegin()
	cfg := Config{DayStartSec: 0, DayLengthSec: 86400, SyncThresholdSec: 5, StopThresholdSec: 2, DummyLenSec: 20, Bounded: false}
	it, player, status := newTestIterator(t, cfg, p.Program)
	status.SetListInit(false)
	player.SetIndex(1)

	atSecOfDay(t, 100)

	m := it.Next(context.Background())
	if m.LastAd == nil || !*m.LastAd {
		t.Error("expected last_ad=true (previous item is an ad)")
	}
	if m.NextAd == nil || !*m.NextAd {
		t.Error("expected next_ad=true (next item is an ad)")
	}
}

func TestDayRolloverLoadsTomorrow(t *testing.T) {
	p := domain.Playlist{StartSec: 0, Program: []domain.Media{
		{Index: 0, Source: "a.mp4", Seek: 0, Out: 86400, Duration: 86400},
	}}
	p.AssignBegin()
	cfg := Config{DayStartSec: 0, DayLengthSec: 86400, SyncThresholdSec: 5, StopThresholdSec: 2, DummyLenSec: 20, Bounded: false}
	it, player, status := newTestIterator(t, cfg, p.Program)
	status.SetListInit(false)
	player.SetIndex(0)

	loader := it.loader.(*fakeLoader)
	loader.playlist.Date = "2026-08-02"
	callsBeforeRollover := loader.calls

	// One second before midnight: check_for_next_playlist's total_delta
	// is close enough to zero to trigger tomorrow's load.
	atSecOfDay(t, 86399)

	it.Next(context.Background())

	if loader.calls <= callsBeforeRollover {
		t.Fatal("expected check_for_next_playlist to reload tomorrow's manifest")
	}
	if status.CurrentDate() != "2026-08-02" {
		t.Fatalf("current_date = %q, want 2026-08-02", status.CurrentDate())
	}
	if status.TimeShift() != 0 {
		t.Fatalf("time_shift = %v, want 0 after rollover", status.TimeShift())
	}
}
