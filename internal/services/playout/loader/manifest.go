package loader

import (
	"encoding/json"

	"playoutd/internal/domain"
)

// rawManifest is the wire shape of a playlist JSON file.
type rawManifest struct {
	Channel string          `json:"channel,omitempty"`
	Date    string          `json:"date"`
	Program []rawProgramRow `json:"program"`
}

type rawProgramRow struct {
	In       float64 `json:"in"`
	Out      float64 `json:"out"`
	Duration float64 `json:"duration"`
	Source   string  `json:"source"`
	Category string  `json:"category,omitempty"`
}

// parse decodes a manifest body into a normalized Playlist, probing for
// a real duration when the manifest omits one and a Prober is wired, and
// falling back to treating `out` as the duration otherwise.
func (l *Loader) parse(body []byte, fallbackDate string, startSec float64) (domain.Playlist, error) {
	var raw rawManifest
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Playlist{}, err
	}

	date := raw.Date
	if date == "" {
		date = fallbackDate
	}

	program := make([]domain.Media, 0, len(raw.Program))
	for i, row := range raw.Program {
		duration := row.Duration
		if duration <= 0 {
			duration = l.resolveDuration(row.Source, row.Out)
		}
		program = append(program, domain.Media{
			Index:    i,
			Source:   row.Source,
			Seek:     row.In,
			Out:      row.Out,
			Duration: duration,
			Category: row.Category,
		})
	}

	pl := domain.Playlist{
		Date:     date,
		StartSec: startSec,
		Program:  program,
	}
	pl.AssignBegin()
	return pl, nil
}

func (l *Loader) resolveDuration(source string, out float64) float64 {
	if l.prober != nil {
		if d, err := l.prober.Duration(source); err == nil && d > 0 {
			return d
		}
		l.log.Warn("loader: probe failed, falling back to manifest out value", "source", source)
	}
	return out
}
