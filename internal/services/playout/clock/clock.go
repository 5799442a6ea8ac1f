// Package clock holds the pure wall-clock arithmetic the iterator and RPC
// layer both depend on: mapping a time.Time onto the day's schedule and
// measuring how far a clip has drifted from where it should be.
package clock

import "time"

// Config carries the day-boundary and tolerance parameters the clock
// functions need. It is a narrow view of app.Config so this package stays
// free of an import on the app layer.
type Config struct {
	DayStartSec      float64
	DayLengthSec     float64
	SyncThresholdSec float64
}

// Now is overridable in tests; production code always calls GetSec().
var Now = time.Now

// GetSec returns the current local wall-clock time as seconds-of-day,
// including the fractional part. Range [0, 86400).
func GetSec() float64 {
	return secOfDay(Now())
}

func secOfDay(t time.Time) float64 {
	h, m, s := t.Clock()
	return float64(h*3600+m*60+s) + float64(t.Nanosecond())/1e9
}

// GetDelta computes how far the reference second-of-day sits from now,
// wrapped into (-dayLength/2, +dayLength/2] to absorb the midnight
// boundary, and how many seconds remain until today's scheduled window
// rolls over, normalized into (0, dayLength].
func GetDelta(cfg Config, referenceSec, nowSec float64) (delta, totalDelta float64) {
	delta = wrap(referenceSec-nowSec, cfg.DayLengthSec)
	totalDelta = wrapPositive(cfg.DayStartSec+cfg.DayLengthSec-nowSec, cfg.DayLengthSec)
	return delta, totalDelta
}

func wrap(v, dayLength float64) float64 {
	half := dayLength / 2
	for v > half {
		v -= dayLength
	}
	for v <= -half {
		v += dayLength
	}
	return v
}

// wrapPositive folds v into (0, dayLength], the range a "seconds until
// rollover" countdown needs rather than the signed half-day window wrap
// uses for drift measurements.
func wrapPositive(v, dayLength float64) float64 {
	for v <= 0 {
		v += dayLength
	}
	for v > dayLength {
		v -= dayLength
	}
	return v
}

// IsClose reports whether a and b are within tolerance of each other.
func IsClose(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// CheckSync reports whether delta is within the configured sync
// threshold. It never mutates state; callers decide what to do with a
// false result (warn) versus a delta past twice the threshold (fatal).
func CheckSync(cfg Config, delta float64) bool {
	if delta < 0 {
		delta = -delta
	}
	return delta <= cfg.SyncThresholdSec
}

// IsFatalDrift reports whether delta has drifted past the point where the
// caller should raise the terminate flag instead of just warning.
func IsFatalDrift(cfg Config, delta float64) bool {
	if delta < 0 {
		delta = -delta
	}
	return delta > 2*cfg.SyncThresholdSec
}
