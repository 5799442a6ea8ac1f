// Package loader resolves a day's playlist manifest from a local
// directory tree or an HTTP(S) prefix, the same "parse what you can,
// degrade to a safe default on error" discipline the teacher's ffprobe
// wrapper applies to an external binary, applied here to an external
// file or remote resource instead.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"playoutd/internal/domain"
	"playoutd/internal/domain/ports"
)

var urlPattern = regexp.MustCompile(`^https?://`)

// Config narrows app.Config to exactly what the loader needs.
type Config struct {
	Root         string
	URLPrefix    string
	DayStartSec  float64
	DayLengthSec float64
	DummyLenSec  float64
}

// Loader implements ports.Loader against a local directory or HTTP(S)
// prefix, selected by which of Config.Root / Config.URLPrefix is set.
type Loader struct {
	cfg    Config
	client *http.Client
	prober ports.MediaProber
	log    *slog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func New(cfg Config, client *http.Client, prober ports.MediaProber, log *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loader{cfg: cfg, client: client, prober: prober, log: log, Now: time.Now}
}

// Load implements ports.Loader.
func (l *Loader) Load(ctx context.Context, pathOverride string, nextStart float64) (domain.Playlist, error) {
	date, startSec := l.targetDate(nextStart)

	if err := ctx.Err(); err != nil {
		return l.fallback(date, startSec), nil
	}

	source := pathOverride
	if source == "" {
		source = l.resolvePath(date)
	}

	var (
		body     []byte
		modified string
		err      error
	)
	if urlPattern.MatchString(source) {
		body, modified, err = l.fetchHTTP(ctx, source)
	} else {
		body, modified, err = l.fetchLocal(source)
	}
	if err != nil {
		l.log.Error("loader: could not resolve playlist, falling back to fill mode", "source", source, "error", err)
		return l.fallback(date, startSec), nil
	}

	playlist, err := l.parse(body, date, startSec)
	if err != nil {
		l.log.Error("loader: invalid playlist manifest, falling back to fill mode", "source", source, "error", err)
		return l.fallback(date, startSec), nil
	}

	playlist.CurrentFile = source
	playlist.Modified = modified
	return playlist, nil
}

func (l *Loader) targetDate(nextStart float64) (string, float64) {
	now := l.Now()
	startSec := l.cfg.DayStartSec
	if nextStart > 0 {
		startSec = nextStart
	}
	if nextStart >= l.cfg.DayLengthSec {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format("2006-01-02"), startSec
}

func (l *Loader) resolvePath(date string) string {
	y, m, d := splitDate(date)
	if l.cfg.URLPrefix != "" {
		return fmt.Sprintf("%s/%s/%s/%s.json", l.cfg.URLPrefix, y, m, d)
	}
	return filepath.Join(l.cfg.Root, y, m, d+".json")
}

func splitDate(date string) (year, month, day string) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "1970", "01", "01"
	}
	return t.Format("2006"), t.Format("01"), t.Format("02")
}

func (l *Loader) fetchLocal(path string) (body []byte, modified string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	body, err = os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return body, info.ModTime().String(), nil
}

func (l *Loader) fetchHTTP(ctx context.Context, url string) (body []byte, modified string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Last-Modified"), nil
}

// fallback returns a placeholder playlist that signals fill mode to the
// iterator: CurrentFile is empty and the program holds one dummy item
// spanning the remaining day.
func (l *Loader) fallback(date string, startSec float64) domain.Playlist {
	remaining := l.cfg.DayLengthSec - startSec
	if remaining <= 0 {
		remaining = l.cfg.DummyLenSec
	}
	return domain.Playlist{
		Date:     date,
		StartSec: startSec,
		Program: []domain.Media{
			domain.NewDummy(0, startSec, remaining),
		},
	}
}
