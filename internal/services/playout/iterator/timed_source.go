package iterator

import (
	"fmt"

	"playoutd/internal/domain"
	"playoutd/internal/metrics"
	"playoutd/internal/services/playout/clock"
)

// timedSource decides whether node is ready to play right now, clamps it
// to the remaining slot when it would run past day end, and otherwise
// builds its decoder command. This is the pure-ish gating helper the
// iterator calls for every PLAYING-state emission.
func (it *Iterator) timedSource(node domain.Media, isLast bool) domain.Media {
	now := clock.GetSec()
	delta, totalDelta := clock.GetDelta(it.clockCfg, node.BeginSec(), now)
	shiftedDelta := delta

	result := node.Clone()
	result.SetProcess(false)

	if it.cfg.Bounded {
		shift := it.status.TimeShift()
		if it.status.CurrentDate() == it.status.Date() && shift != 0 {
			shiftedDelta = delta - shift
		}
		metrics.SyncDelta.Set(shiftedDelta)

		if !clock.CheckSync(it.clockCfg, shiftedDelta) {
			it.log.Warn("timed_source: drifted out of sync", "delta", fmt.Sprintf("%.3f", shiftedDelta))
			if clock.IsFatalDrift(it.clockCfg, shiftedDelta) {
				it.raiseTerminate(fmt.Sprintf("drifted %.2fs past sync threshold", shiftedDelta))
			}
			result.Cmd = nil
			return result
		}
	}

	switch {
	case (totalDelta > node.Out-node.Seek && !isLast) || node.Index < 2 || !it.cfg.Bounded:
		result = it.genSource(node)
		result.SetProcess(true)
	case totalDelta <= 0:
		it.log.Info("timed_source: begin is past play time, skipping", "source", node.Source)
	case totalDelta < node.Duration-node.Seek || isLast:
		result = it.handleListEnd(node, totalDelta)
	}
	return result
}
