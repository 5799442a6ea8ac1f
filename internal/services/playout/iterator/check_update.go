package iterator

import (
	"context"
	"net/http"
	"os"

	"playoutd/internal/domain"
	"playoutd/internal/metrics"
	"playoutd/internal/services/playout/clock"
	"playoutd/internal/services/playout/dummy"
)

// checkUpdate is the refresh cycle run on every Next() call: reload the
// playlist if its source changed, or fall back to a dummy playlist if
// the source vanished outright.
func (it *Iterator) checkUpdate(ctx context.Context) {
	path := it.currentJSONPath()

	if path == "" {
		pl, err := it.loader.Load(ctx, "", 0)
		if err != nil {
			it.log.Error("check_update: initial load failed", "error", err)
			return
		}
		it.applyLoadedPlaylist(pl, false)
		return
	}

	if urlPattern.MatchString(path) {
		modified, ok := it.headURL(ctx, path)
		if !ok {
			return
		}
		if modified == "" {
			// No Last-Modified header: treat the source as unchanged
			// rather than crash on a missing header.
			return
		}
		it.metaMu.Lock()
		cur := it.jsonMod
		it.metaMu.Unlock()
		if modified == cur {
			return
		}

		pl, err := it.loader.Load(ctx, path, 0)
		if err != nil {
			it.log.Error("check_update: remote reload failed", "path", path, "error", err)
			return
		}
		it.applyLoadedPlaylist(pl, true)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		it.log.Error("check_update: playlist file vanished", "path", path, "error", err)
		if it.notifier != nil {
			it.notifier.Send(domain.NewWarning("iterator", "day's playlist cannot be found: "+path))
		}
		now := clock.GetSec()
		media := dummy.Generate(0, now, it.cfg.DummyLenSec)
		it.player.Reload([]domain.Media{media})
		it.status.SetListInit(true)
		it.player.SetIndex(0)
		it.metaMu.Lock()
		it.jsonPath = ""
		it.jsonMod = ""
		it.metaMu.Unlock()
		return
	}

	modTime := info.ModTime().String()
	it.metaMu.Lock()
	cur := it.jsonMod
	it.metaMu.Unlock()
	if modTime == cur {
		return
	}

	pl, err := it.loader.Load(ctx, path, 0)
	if err != nil {
		it.log.Error("check_update: local reload failed", "path", path, "error", err)
		return
	}
	it.applyLoadedPlaylist(pl, true)
}

func (it *Iterator) applyLoadedPlaylist(pl domain.Playlist, realign bool) {
	requestID := newRequestID()

	it.metaMu.Lock()
	it.jsonPath = pl.CurrentFile
	it.jsonMod = pl.Modified
	it.jsonDate = pl.Date
	it.startSec = pl.StartSec
	it.metaMu.Unlock()

	it.player.Reload(pl.Program)
	metrics.ReloadTotal.WithLabelValues(sourceLabel(pl.CurrentFile)).Inc()
	metrics.StateTransitionsTotal.WithLabelValues("playing", "playlist_swap").Inc()
	it.log.Info("iterator: playlist reloaded", "request_id", requestID.String(), "source", pl.CurrentFile, "items", len(pl.Program))

	if realign {
		it.getCurrentClipAndAlign()
		it.player.Advance()
	}

	if !pl.HasSource() {
		it.status.SetListInit(true)
	}
}

func (it *Iterator) headURL(ctx context.Context, url string) (modified string, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", false
	}
	resp, err := it.httpClient.Do(req)
	if err != nil {
		it.log.Warn("check_update: HEAD failed, skipping refresh", "url", url, "error", err)
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}
	return resp.Header.Get("Last-Modified"), true
}
