package ports

import (
	"context"

	"playoutd/internal/domain"
)

// Loader resolves the program for a broadcast day, whether that means
// reading a local JSON manifest, fetching one over HTTP, or falling
// back to a synthetic filler list when neither is available.
//
// pathOverride, when non-empty, names a specific manifest to load instead
// of deriving one from the date. nextStart is the scheduled second-of-day
// the resulting playlist should begin at; a value past the configured day
// length rolls the target date forward. Load itself performs no seeking;
// re-seeking after a load is the iterator's job. ctx cancellation is
// honored before any network call and before any load is started at all.
type Loader interface {
	Load(ctx context.Context, pathOverride string, nextStart float64) (domain.Playlist, error)
}
