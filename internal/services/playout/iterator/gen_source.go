package iterator

import (
	"playoutd/internal/domain"
	"playoutd/internal/services/playout/clock"
	"playoutd/internal/services/playout/dummy"
)

// genSource turns a validated source into a decoder command, or
// substitutes filler when the source is missing or empty.
func (it *Iterator) genSource(node domain.Media) domain.Media {
	result := node.Clone()

	if it.validator.Validate(node.Source) {
		result.Cmd = it.cmdBuilder.Build(node.Source, node.Seek, node.Out, node.Duration)
		result.SetProcess(true)
		return result
	}

	if node.Source == "" {
		it.log.Warn("gen_source: empty source, generating filler", "length", node.Out-node.Seek)
	} else {
		it.log.Error("gen_source: file not found", "source", node.Source)
	}

	filler := dummy.Generate(node.Index, node.BeginSec(), node.Out-node.Seek)
	result.Source = filler.Source
	result.Cmd = filler.Cmd
	result.SetProcess(true)
	return result
}

// handleListInit clamps a just-seeked clip so it doesn't run past the
// end of today's schedule.
func (it *Iterator) handleListInit(node domain.Media) domain.Media {
	_, totalDelta := clock.GetDelta(it.clockCfg, node.BeginSec(), clock.GetSec())

	out := node.Out
	if node.Out-node.Seek > totalDelta {
		out = totalDelta + node.Seek
	}
	node.Out = out
	return it.genSource(node)
}

// handleListEnd clamps the last clip of the day (or the last clip of the
// playlist) to whatever time actually remains.
func (it *Iterator) handleListEnd(node domain.Media, totalDelta float64) domain.Media {
	out := totalDelta
	if node.Seek > 0 {
		out = node.Seek + totalDelta
	}
	if out > node.Duration {
		out = node.Duration
	} else {
		it.log.Warn("handle_list_end: clip length is not in time", "new_duration", totalDelta)
	}

	result := node.Clone()

	switch {
	case node.Duration > totalDelta && totalDelta > 1.0 && node.Duration-node.Seek >= totalDelta:
		result.Out = out
	case node.Duration > totalDelta && totalDelta < 1.0:
		it.log.Warn("handle_list_end: clip less than 1 second long, skipping", "source", node.Source)
		result.Out = out
		result.Cmd = it.cmdBuilder.Build(node.Source, node.Seek, out, node.Duration)
		result.SetProcess(false)
		return result
	default:
		it.log.Warn("handle_list_end: playlist is not long enough", "seconds_needed", totalDelta)
	}

	result.SetProcess(true)
	result.Cmd = it.cmdBuilder.Build(node.Source, node.Seek, result.Out, node.Duration)
	return result
}
