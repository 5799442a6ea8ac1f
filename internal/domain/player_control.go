package domain

import (
	"sync"
	"sync/atomic"
)

// PlayerControl holds the iterator's live position inside the current
// playlist. Index is read far more often than it is written (every RPC
// query plus every encoder tick), so it is kept outside the list mutex.
type PlayerControl struct {
	mu          sync.RWMutex
	currentList []Media

	index atomic.Int32

	currentMu    sync.RWMutex
	currentMedia Media
}

// NewPlayerControl returns an empty control block; Reload must be called
// before Next is usable.
func NewPlayerControl() *PlayerControl {
	return &PlayerControl{}
}

// Reload swaps in a freshly loaded program and resets the cursor to 0.
func (p *PlayerControl) Reload(program []Media) {
	p.mu.Lock()
	p.currentList = program
	p.mu.Unlock()
	p.index.Store(0)
}

// List returns the program slice currently in effect.
func (p *PlayerControl) List() []Media {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentList
}

// Len reports how many items are in the current program.
func (p *PlayerControl) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.currentList)
}

// Index returns the cursor into the current program.
func (p *PlayerControl) Index() int {
	return int(p.index.Load())
}

// SetIndex moves the cursor.
func (p *PlayerControl) SetIndex(i int) {
	p.index.Store(int32(i))
}

// Advance moves the cursor forward one slot and returns the new value.
func (p *PlayerControl) Advance() int {
	return int(p.index.Add(1))
}

// CurrentMedia returns the clip the iterator last handed out.
func (p *PlayerControl) CurrentMedia() Media {
	p.currentMu.RLock()
	defer p.currentMu.RUnlock()
	return p.currentMedia
}

// SetCurrentMedia records the clip the iterator just handed out.
func (p *PlayerControl) SetCurrentMedia(m Media) {
	p.currentMu.Lock()
	p.currentMedia = m
	p.currentMu.Unlock()
}

// Append adds m to the end of the current program, for example when the
// iterator synthesizes a filler item to cover a short day.
func (p *PlayerControl) Append(m Media) {
	p.mu.Lock()
	p.currentList = append(p.currentList, m)
	p.mu.Unlock()
}

// MediaAt returns program[i] and whether i was in range.
func (p *PlayerControl) MediaAt(i int) (Media, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i < 0 || i >= len(p.currentList) {
		return Media{}, false
	}
	return p.currentList[i], true
}
