package watchdog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) RefreshPlaylist(ctx context.Context) {
	c.calls.Add(1)
}

func TestWatchdogFiresOnSchedule(t *testing.T) {
	r := &countingRefresher{}
	w, err := New("@every 10ms", r, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Start()
	defer w.Stop()

	deadline := time.After(time.Second)
	for r.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("watchdog never fired within 1s")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewRejectsBadSpec(t *testing.T) {
	r := &countingRefresher{}
	if _, err := New("not a cron spec", r, nil); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
