package domain

import "testing"

func TestPlayerControlReloadResetsIndex(t *testing.T) {
	p := NewPlayerControl()
	p.SetIndex(5)
	p.Reload([]Media{{Index: 0}, {Index: 1}})

	if p.Index() != 0 {
		t.Fatalf("index = %d, want 0 after reload", p.Index())
	}
	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
}

func TestPlayerControlAdvanceAndMediaAt(t *testing.T) {
	p := NewPlayerControl()
	p.Reload([]Media{{Index: 0}, {Index: 1}, {Index: 2}})

	if got := p.Advance(); got != 1 {
		t.Fatalf("Advance = %d, want 1", got)
	}
	m, ok := p.MediaAt(1)
	if !ok || m.Index != 1 {
		t.Fatalf("MediaAt(1) = %+v, %v", m, ok)
	}
	if _, ok := p.MediaAt(99); ok {
		t.Fatal("MediaAt(99) should report out of range")
	}
}

func TestPlayerControlAppend(t *testing.T) {
	p := NewPlayerControl()
	p.Reload([]Media{{Index: 0}})
	p.Append(Media{Index: 1})

	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
}

func TestPlayoutStatusFields(t *testing.T) {
	s := NewPlayoutStatus(12.5, "2026-08-01")
	if s.TimeShift() != 12.5 {
		t.Fatalf("time_shift = %v, want 12.5", s.TimeShift())
	}
	if s.Date() != "2026-08-01" {
		t.Fatalf("date = %q", s.Date())
	}

	s.SetTimeShift(0)
	s.SetDate("2026-08-02")
	s.SetCurrentDate("2026-08-02")
	s.SetListInit(true)

	if s.TimeShift() != 0 || s.Date() != "2026-08-02" || s.CurrentDate() != "2026-08-02" || !s.ListInit() {
		t.Fatalf("unexpected status after setters: %+v", s)
	}
}

func TestProcessControlTerminateAndRPCHandle(t *testing.T) {
	p := NewProcessControl()
	if p.Terminated() {
		t.Fatal("expected fresh ProcessControl to be non-terminated")
	}

	p.RequestTermination()
	if !p.Terminated() {
		t.Fatal("expected Terminated true after RequestTermination")
	}

	p.Reset()
	if p.Terminated() {
		t.Fatal("expected Terminated false after Reset")
	}

	p.TrackRPCHandle(RequestID("req-1"))
	if p.LastRPCHandle() != "req-1" {
		t.Fatalf("LastRPCHandle = %q, want req-1", p.LastRPCHandle())
	}
}

func TestBuildSnapshotCapturesAllBlocks(t *testing.T) {
	status := NewPlayoutStatus(3, "2026-08-01")
	player := NewPlayerControl()
	player.Reload([]Media{{Index: 0, Source: "a.mp4"}, {Index: 1, Source: "b.mp4"}})
	player.SetCurrentMedia(Media{Index: 0, Source: "a.mp4"})
	proc := NewProcessControl()

	snap := BuildSnapshot(status, player, proc)

	if snap.Date != "2026-08-01" || snap.TimeShift != 3 || snap.Total != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Current.Source != "a.mp4" {
		t.Fatalf("snapshot current = %+v", snap.Current)
	}
	if snap.Terminated {
		t.Fatal("expected fresh ProcessControl to report not terminated")
	}
}
