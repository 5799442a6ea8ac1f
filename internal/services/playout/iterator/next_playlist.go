package iterator

import (
	"context"
	"math"

	"playoutd/internal/domain"
	"playoutd/internal/metrics"
	"playoutd/internal/services/playout/clock"
)

// checkForNextPlaylist fires a load of tomorrow's manifest when the
// current node's schedule math says today's slot is about to run out.
func (it *Iterator) checkForNextPlaylist(ctx context.Context, node domain.Media, index, listLen int) {
	now := clock.GetSec()
	delta, totalDelta := clock.GetDelta(it.clockCfg, now, now)

	effectiveDuration := math.Max(node.Out, node.Duration)
	nextStart := node.BeginSec() - it.cfg.DayStartSec + effectiveDuration + delta
	if listLen > 0 && index == listLen-1 {
		nextStart += it.cfg.StopThresholdSec
	}

	if nextStart >= it.cfg.DayLengthSec ||
		clock.IsClose(totalDelta, 0, 2) ||
		clock.IsClose(totalDelta, it.cfg.DayLengthSec, 2) {
		it.fireNextPlaylist(ctx, nextStart)
	}
}

func (it *Iterator) fireNextPlaylist(ctx context.Context, nextStart float64) {
	pl, err := it.loader.Load(ctx, "", nextStart)
	if err != nil {
		it.log.Error("check_for_next_playlist: load failed", "error", err)
		return
	}

	requestID := newRequestID()

	it.status.SetCurrentDate(pl.Date)
	it.status.SetTimeShift(0)
	if err := it.statusStore.Write(0, pl.Date); err != nil {
		it.log.Warn("check_for_next_playlist: status write failed", "error", err)
	}
	it.status.SetDate(pl.Date)

	it.metaMu.Lock()
	it.jsonPath = pl.CurrentFile
	it.jsonMod = pl.Modified
	it.jsonDate = pl.Date
	it.startSec = pl.StartSec
	it.metaMu.Unlock()

	it.player.Reload(pl.Program)
	metrics.ReloadTotal.WithLabelValues(sourceLabel(pl.CurrentFile)).Inc()
	it.log.Info("iterator: day rollover", "request_id", requestID.String(), "date", pl.Date, "source", pl.CurrentFile)

	if !pl.HasSource() {
		it.status.SetListInit(true)
	}
}
