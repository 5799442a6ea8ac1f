// Package iterator implements the schedule iterator state machine: the
// single Next(ctx) operation that turns shared scheduler state into a
// ready-to-play domain.Media, exactly the way the teacher's anacrolix
// engine pairs a mutex+atomics orchestrator (engine.go) with pure
// state-derivation helpers (engine_phase.go) it calls into.
package iterator

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"playoutd/internal/domain"
	"playoutd/internal/domain/ports"
	"playoutd/internal/metrics"
	"playoutd/internal/services/playout/clock"
	"playoutd/internal/services/playout/dummy"
)

var urlPattern = regexp.MustCompile(`^https?://`)

// Config carries the day-boundary, tolerance and scheduling parameters
// the iterator needs.
type Config struct {
	DayStartSec      float64
	DayLengthSec     float64
	SyncThresholdSec float64
	StopThresholdSec float64
	DummyLenSec      float64
	// Bounded mirrors "config.playlist.length contains a colon" in the
	// original: true when the schedule runs for a concrete duration and
	// sync checking applies; false for an unbounded/free-running loop.
	Bounded bool
}

// Iterator is the schedule iterator state machine described in the
// component design: it owns no state of its own beyond playlist
// metadata, reading and mutating the shared PlayerControl/PlayoutStatus/
// ProcessControl blocks under the documented lock order.
type Iterator struct {
	cfg      Config
	clockCfg clock.Config

	loader      ports.Loader
	statusStore ports.StatusStore
	validator   ports.SourceValidator
	cmdBuilder  ports.CommandBuilder
	notifier    ports.Notifier
	onSnapshot  func(domain.Snapshot)

	httpClient *http.Client
	log        *slog.Logger

	player *domain.PlayerControl
	status *domain.PlayoutStatus
	proc   *domain.ProcessControl

	metaMu    sync.Mutex
	jsonPath  string
	jsonMod   string
	jsonDate  string
	startSec  float64
	lastState string
}

// Option configures optional collaborators on New, following the
// teacher's functional-options convention for its Server type.
type Option func(*Iterator)

func WithNotifier(n ports.Notifier) Option {
	return func(it *Iterator) { it.notifier = n }
}

func WithSnapshotHook(fn func(domain.Snapshot)) Option {
	return func(it *Iterator) { it.onSnapshot = fn }
}

func WithHTTPClient(c *http.Client) Option {
	return func(it *Iterator) { it.httpClient = c }
}

func New(
	cfg Config,
	loader ports.Loader,
	statusStore ports.StatusStore,
	validator ports.SourceValidator,
	cmdBuilder ports.CommandBuilder,
	player *domain.PlayerControl,
	status *domain.PlayoutStatus,
	proc *domain.ProcessControl,
	log *slog.Logger,
	opts ...Option,
) *Iterator {
	if log == nil {
		log = slog.Default()
	}
	it := &Iterator{
		cfg: cfg,
		clockCfg: clock.Config{
			DayStartSec:      cfg.DayStartSec,
			DayLengthSec:     cfg.DayLengthSec,
			SyncThresholdSec: cfg.SyncThresholdSec,
		},
		loader:      loader,
		statusStore: statusStore,
		validator:   validator,
		cmdBuilder:  cmdBuilder,
		player:      player,
		status:      status,
		proc:        proc,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         log,
		startSec:    cfg.DayStartSec,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Bootstrap performs the initial playlist load, mirroring
// CurrentProgram::new: load today's program, seed current_date, and
// zero time_shift if the loaded date doesn't match the persisted one.
func (it *Iterator) Bootstrap(ctx context.Context) error {
	pl, err := it.loader.Load(ctx, "", 0)
	if err != nil {
		return err
	}

	it.metaMu.Lock()
	it.jsonPath = pl.CurrentFile
	it.jsonMod = pl.Modified
	it.jsonDate = pl.Date
	it.startSec = pl.StartSec
	it.metaMu.Unlock()

	it.player.Reload(pl.Program)
	it.status.SetCurrentDate(pl.Date)

	if it.status.Date() != pl.Date {
		if err := it.statusStore.Write(0, pl.Date); err != nil {
			it.log.Warn("bootstrap: status write failed", "error", err)
		}
		it.status.SetTimeShift(0)
		it.status.SetDate(pl.Date)
	}

	if !pl.HasSource() {
		it.status.SetListInit(true)
	}
	return nil
}

// RefreshPlaylist re-runs the hot-reload mtime check outside of the normal
// Next() call path. The cron rollover watchdog calls this on its own
// schedule, independent of playback, so a manifest edited or replaced
// while a clip is still playing is picked up without waiting for playback
// to reach the next item.
func (it *Iterator) RefreshPlaylist(ctx context.Context) {
	it.checkUpdate(ctx)
}

// Next produces the next ready-to-play Media. It never returns an error
// and never blocks beyond the I/O its collaborators need: every branch,
// real clip or dummy, yields a Media. Once ctx is cancelled or the
// terminate flag is raised, it returns a DummyLenSec filler clip without
// touching the schedule.
func (it *Iterator) Next(ctx context.Context) domain.Media {
	if ctx.Err() != nil || it.proc.Terminated() {
		return dummy.Generate(it.player.Index(), clock.GetSec(), it.cfg.DummyLenSec)
	}
	if it.status.ListInit() {
		return it.nextInit(ctx)
	}

	idx := it.player.Index()
	total := it.player.Len()
	if idx < total {
		return it.nextPlaying(ctx, idx, total)
	}
	return it.nextExhausted(ctx)
}

func (it *Iterator) nextInit(ctx context.Context) domain.Media {
	it.transition("init")
	it.checkUpdate(ctx)

	if it.currentJSONPath() != "" {
		it.initClip()
	}

	var media domain.Media
	if it.status.ListInit() {
		media = it.handleInitExhaustion(ctx)
	} else {
		media = it.player.CurrentMedia()
	}

	emittedIdx := it.player.Index() - 1
	media = it.applyNeighborAdFlags(media, emittedIdx)
	it.player.SetCurrentMedia(media)
	it.publishSnapshot()
	return media
}

func (it *Iterator) nextPlaying(ctx context.Context, idx, total int) domain.Media {
	node, _ := it.player.MediaAt(idx)
	it.checkForNextPlaylist(ctx, node, idx, total)

	idx = it.player.Index()
	total = it.player.Len()
	if idx >= total {
		return it.nextExhausted(ctx)
	}

	node, _ = it.player.MediaAt(idx)
	isLast := idx == total-1

	it.transition("playing")
	media := it.timedSource(node, isLast)
	media = it.applyNeighborAdFlags(media, idx)
	it.player.SetIndex(idx + 1)
	it.player.SetCurrentMedia(media)

	// Deferred to after emission, so a mid-flight reload never clobbers
	// the item already handed to the decoder.
	it.checkUpdate(ctx)
	it.publishSnapshot()
	return media
}

func (it *Iterator) nextExhausted(ctx context.Context) domain.Media {
	lastPath := it.currentJSONPath()
	total := it.player.Len()
	var lastNode domain.Media
	if total > 0 {
		lastNode, _ = it.player.MediaAt(total - 1)
	}
	it.checkForNextPlaylist(ctx, lastNode, total-1, total)

	now := clock.GetSec()
	_, totalDelta := clock.GetDelta(it.clockCfg, it.cfg.DayStartSec, now)

	if lastPath == it.currentJSONPath() && absf(totalDelta) > it.cfg.StopThresholdSec {
		idx := it.player.Len()
		length := absf(totalDelta)
		if length > it.cfg.DummyLenSec {
			length = it.cfg.DummyLenSec
		}
		it.transition("fill")
		media := it.genSource(dummy.Generate(idx, now, length))
		it.player.Append(media)
		media = it.applyNeighborAdFlags(media, idx)
		it.player.SetIndex(idx + 1)
		it.player.SetCurrentMedia(media)
		metrics.DummyFillTotal.Inc()
		it.publishSnapshot()
		return media
	}

	it.player.SetIndex(0)
	node, ok := it.player.MediaAt(0)
	if !ok {
		it.transition("fill")
		media := dummy.Generate(0, now, it.cfg.DummyLenSec)
		it.player.Reload([]domain.Media{media})
		it.player.SetIndex(1)
		it.player.SetCurrentMedia(media)
		it.publishSnapshot()
		return media
	}

	it.transition("playing")
	media := it.genSource(node)
	media = it.applyNeighborAdFlags(media, 0)
	it.player.SetIndex(1)
	it.player.SetCurrentMedia(media)
	it.publishSnapshot()
	return media
}

func (it *Iterator) handleInitExhaustion(ctx context.Context) domain.Media {
	listLen := it.player.Len()
	lastNode, _ := it.player.MediaAt(listLen - 1)
	it.player.SetCurrentMedia(lastNode)
	it.checkForNextPlaylist(ctx, lastNode, listLen-1, listLen)

	newLen := it.player.Len()
	newNode, _ := it.player.MediaAt(newLen - 1)
	dayEnd := it.cfg.DayStartSec + it.cfg.DayLengthSec
	if newNode.BeginSec()+newNode.Duration >= dayEnd {
		it.initClip()
		it.transition("playing")
		return it.player.CurrentMedia()
	}

	now := clock.GetSec()
	_, totalDelta := clock.GetDelta(it.clockCfg, now, now)
	length := it.cfg.DummyLenSec
	if it.cfg.DummyLenSec > totalDelta {
		length = totalDelta
		it.status.SetListInit(false)
	}

	begin := now
	if it.cfg.DayStartSec > now {
		begin = now + it.cfg.DayLengthSec + 1
	}

	it.transition("fill")
	idx := it.player.Len()
	media := it.genSource(dummy.Generate(idx, begin, length))
	it.player.Append(media)
	it.player.SetIndex(it.player.Len())
	it.player.SetCurrentMedia(media)
	metrics.DummyFillTotal.Inc()
	return media
}

func (it *Iterator) initClip() {
	it.getCurrentClipAndAlign()
	if it.status.ListInit() {
		return
	}

	idx := it.player.Index()
	node, ok := it.player.MediaAt(idx)
	if !ok {
		return
	}
	it.player.SetIndex(idx + 1)

	now := it.currentTime()
	clone := node.Clone()
	clone.Seek = now - clone.BeginSec()
	clone = it.handleListInit(clone)
	it.player.SetCurrentMedia(clone)
}

func (it *Iterator) getCurrentClipAndAlign() bool {
	now := it.currentTime()
	shift := it.status.TimeShift()
	if it.status.CurrentDate() == it.status.Date() && shift != 0 {
		now += shift
	}

	program := it.player.List()
	for i, item := range program {
		if item.BeginSec()+item.Out-item.Seek > now {
			it.status.SetListInit(false)
			it.player.SetIndex(i)
			return true
		}
	}
	return false
}

func (it *Iterator) currentTime() float64 {
	t := clock.GetSec()
	it.metaMu.Lock()
	start := it.startSec
	it.metaMu.Unlock()
	if t < start {
		t += it.cfg.DayLengthSec
	}
	return t
}

func (it *Iterator) applyNeighborAdFlags(m domain.Media, idx int) domain.Media {
	program := it.player.List()
	if idx+1 >= 0 && idx+1 < len(program) && program[idx+1].IsAdvertisement() {
		m.SetNextAd(true)
	}
	if idx > 0 && idx < len(program) && program[idx-1].IsAdvertisement() {
		m.SetLastAd(true)
	}
	return m
}

func (it *Iterator) currentJSONPath() string {
	it.metaMu.Lock()
	defer it.metaMu.Unlock()
	return it.jsonPath
}

func (it *Iterator) raiseTerminate(reason string) {
	it.proc.RequestTermination()
	metrics.TerminateTotal.Inc()
	if it.notifier != nil {
		it.notifier.Send(domain.NewFatal("iterator", reason))
	}
	it.log.Error("iterator: fatal sync drift, raising terminate flag", "reason", reason)
}

// transition logs and counts a state change of the iterator's play head,
// the same INIT/PLAYING/FILL points the teacher's StreamJob touches its
// metrics.HLS* counters at. A no-op when the state hasn't changed.
func (it *Iterator) transition(to string) {
	it.metaMu.Lock()
	from := it.lastState
	it.lastState = to
	it.metaMu.Unlock()

	if from == to {
		return
	}
	metrics.StateTransitionsTotal.WithLabelValues(from, to).Inc()
	it.log.Info("iterator: state transition", "request_id", newRequestID().String(), "from", from, "to", to)
}

func (it *Iterator) publishSnapshot() {
	if it.onSnapshot == nil {
		return
	}
	it.onSnapshot(domain.BuildSnapshot(it.status, it.player, it.proc))
}

func sourceLabel(path string) string {
	switch {
	case path == "":
		return "none"
	case urlPattern.MatchString(path):
		return "remote"
	default:
		return "local"
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func newRequestID() domain.RequestID {
	return domain.RequestID(uuid.NewString())
}
