package domain

import (
	"sync"
	"sync/atomic"
)

// ProcessControl tracks the lifecycle of the external decoder process the
// iterator feeds. The iterator raises the terminate flag on fatal sync
// drift; from then on Next emits filler instead of scheduled clips.
type ProcessControl struct {
	terminate atomic.Bool

	mu        sync.Mutex
	rpcHandle RequestID
}

func NewProcessControl() *ProcessControl {
	return &ProcessControl{}
}

// RequestTermination marks the decoder for a graceful stop.
func (p *ProcessControl) RequestTermination() {
	p.terminate.Store(true)
}

// Terminated reports whether a graceful stop has been requested.
func (p *ProcessControl) Terminated() bool {
	return p.terminate.Load()
}

// Reset clears a prior termination request.
func (p *ProcessControl) Reset() {
	p.terminate.Store(false)
}

// TrackRPCHandle records the request ID of the most recently dispatched
// RPC player call (control command or media query), readable through
// LastRPCHandle.
func (p *ProcessControl) TrackRPCHandle(id RequestID) {
	p.mu.Lock()
	p.rpcHandle = id
	p.mu.Unlock()
}

// LastRPCHandle returns the most recently tracked RPC request ID.
func (p *ProcessControl) LastRPCHandle() RequestID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rpcHandle
}
