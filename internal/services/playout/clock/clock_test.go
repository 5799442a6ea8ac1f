package clock

import "testing"

func TestGetDeltaWrapsAcrossMidnight(t *testing.T) {
	cfg := Config{DayStartSec: 0, DayLengthSec: 86400, SyncThresholdSec: 5}

	tests := []struct {
		name      string
		reference float64
		now       float64
		wantDelta float64
		wantTotal float64
	}{
		{"reference just before now, no wrap", 100, 105, -5, 86295},
		{"reference ahead of now within same day", 200, 100, 100, 86300},
		{"reference just after midnight, now just before", 1, 86399, 2, 1},
		{"reference just before midnight, now just after", 86399, 1, -2, 86399},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, total := GetDelta(cfg, tt.reference, tt.now)
			if !IsClose(delta, tt.wantDelta, 0.001) {
				t.Errorf("delta = %v, want %v", delta, tt.wantDelta)
			}
			if !IsClose(total, tt.wantTotal, 0.001) {
				t.Errorf("totalDelta = %v, want %v", total, tt.wantTotal)
			}
		})
	}
}

func TestIsClose(t *testing.T) {
	if !IsClose(1.0, 1.5, 0.5) {
		t.Error("expected 1.0 and 1.5 to be close within tolerance 0.5")
	}
	if IsClose(1.0, 2.0, 0.5) {
		t.Error("expected 1.0 and 2.0 not to be close within tolerance 0.5")
	}
}

func TestCheckSyncAndFatalDrift(t *testing.T) {
	cfg := Config{SyncThresholdSec: 5}

	if !CheckSync(cfg, 3) {
		t.Error("delta within threshold should report in sync")
	}
	if CheckSync(cfg, 6) {
		t.Error("delta past threshold should report out of sync")
	}
	if IsFatalDrift(cfg, 6) {
		t.Error("6s drift should not be fatal at threshold 5")
	}
	if !IsFatalDrift(cfg, 11) {
		t.Error("11s drift should be fatal at threshold 5 (> 2x)")
	}
}
