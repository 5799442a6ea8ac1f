package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrUnsupported = errors.New("unsupported operation")
var ErrPlaylistEmpty = errors.New("playlist has no program entries")
var ErrSourceUnreachable = errors.New("playlist source unreachable")
var ErrSyncLost = errors.New("encoder drifted past the terminate threshold")
var ErrStatusStoreUnavailable = errors.New("status store degraded to memory-only")
var ErrBadParams = errors.New("no, or wrong parameters set")
var ErrUnauthorized = errors.New("unauthorized")
