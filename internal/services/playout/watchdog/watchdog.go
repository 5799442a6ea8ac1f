// Package watchdog runs the day-rollover cron job: a belt-and-suspenders
// poke at the Iterator's own hot-reload check, grounded on ausocean-cloud's
// robfig/cron-based scheduler in cmd/oceancron.
package watchdog

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Refresher is the subset of Iterator the watchdog depends on.
type Refresher interface {
	RefreshPlaylist(ctx context.Context)
}

// Watchdog periodically invokes Refresher.RefreshPlaylist on a cron
// schedule. RefreshPlaylist repeats the Iterator's own checkUpdate
// freshness check, which changes nothing when the manifest is unchanged:
// a missed or duplicate tick is harmless.
type Watchdog struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New builds a Watchdog on the given cron spec (standard 5-field syntax,
// e.g. "0 0 * * *" for daily at midnight local time) but does not start it.
func New(spec string, it Refresher, logger *slog.Logger) (*Watchdog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		logger.Info("watchdog: rollover tick")
		it.RefreshPlaylist(context.Background())
	})
	if err != nil {
		return nil, err
	}
	return &Watchdog{cron: c, log: logger}, nil
}

// Start runs the cron scheduler in the background.
func (w *Watchdog) Start() {
	w.cron.Start()
}

// Stop waits for the running job (if any) to complete, then halts
// scheduling.
func (w *Watchdog) Stop() {
	<-w.cron.Stop().Done()
}
