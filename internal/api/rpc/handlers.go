package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"playoutd/internal/domain"
	"playoutd/internal/metrics"
	"playoutd/internal/services/playout/clock"
)

type controlResult struct {
	Operation      string       `json:"operation"`
	ShiftedSeconds float64      `json:"shifted_seconds,omitempty"`
	Media          domain.Media `json:"media,omitempty"`
}

type queryResult struct {
	PlayMode     string       `json:"play_mode"`
	Index        int          `json:"index"`
	StartSec     float64      `json:"start_sec"`
	StartTime    string       `json:"start_time"`
	PlayedSec    float64      `json:"played_sec"`
	RemainingSec float64      `json:"remaining_sec"`
	CurrentMedia domain.Media `json:"current_media"`
}

// handlePlayer is the single JSON-RPC method the control RPC exposes,
// accepting either a control command (next/back/reset) or a media query
// (current/next/last) in its params.
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		writeError(w, http.StatusBadRequest, wrongParams)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, wrongParams)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, wrongParams)
		return
	}
	if req.Method != "player" {
		writeRPCFailure(w, req.ID)
		return
	}

	var params playerParams
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params, &params)
	}

	s.proc.TrackRPCHandle(domain.RequestID(uuid.NewString()))

	switch {
	case params.Control != "":
		s.handleControl(r.Context(), w, req.ID, params.Control)
	case params.Media != "":
		s.handleQuery(w, req.ID, params.Media)
	default:
		writeRPCFailure(w, req.ID)
	}
}

// handleStatus is the GET /status liveness probe: it never touches
// scheduler state, only confirms the RPC server itself is responsive.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		writeError(w, http.StatusBadRequest, wrongParams)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, wrongParams)
		return
	}
	writePlain(w, http.StatusOK, "Server running OK")
}

func (s *Server) handleControl(ctx context.Context, w http.ResponseWriter, id interface{}, control string) {
	switch control {
	case "next":
		list := s.player.List()
		idx := s.player.Index()
		if idx >= len(list) {
			metrics.RPCCommandsTotal.WithLabelValues("next", "precondition_failed").Inc()
			writeRPCFailure(w, id)
			return
		}
		node := list[idx]
		s.killDecoder(ctx)
		delta, _ := clock.GetDelta(s.clockCfg, node.BeginSec(), clock.GetSec())
		s.status.SetTimeShift(delta)
		s.persistStatus()
		s.PublishSnapshot(domain.BuildSnapshot(s.status, s.player, s.proc))
		metrics.RPCCommandsTotal.WithLabelValues("next", "ok").Inc()
		writeRPCResult(w, id, controlResult{Operation: "move_to_next", ShiftedSeconds: delta, Media: node})

	case "back":
		list := s.player.List()
		idx := s.player.Index()
		if !(idx > 1 && len(list) > 1) {
			metrics.RPCCommandsTotal.WithLabelValues("back", "precondition_failed").Inc()
			writeRPCFailure(w, id)
			return
		}
		target := idx - 2
		node := list[target]
		s.killDecoder(ctx)
		delta, _ := clock.GetDelta(s.clockCfg, node.BeginSec(), clock.GetSec())
		s.status.SetTimeShift(delta)
		s.player.SetIndex(target)
		s.persistStatus()
		s.PublishSnapshot(domain.BuildSnapshot(s.status, s.player, s.proc))
		metrics.RPCCommandsTotal.WithLabelValues("back", "ok").Inc()
		writeRPCResult(w, id, controlResult{Operation: "move_to_last", ShiftedSeconds: delta, Media: node})

	case "reset":
		s.killDecoder(ctx)
		s.status.SetTimeShift(0)
		s.status.SetListInit(true)
		s.persistStatus()
		s.PublishSnapshot(domain.BuildSnapshot(s.status, s.player, s.proc))
		metrics.RPCCommandsTotal.WithLabelValues("reset", "ok").Inc()
		writeRPCResult(w, id, controlResult{Operation: "reset_playout_state"})

	default:
		metrics.RPCCommandsTotal.WithLabelValues(control, "unknown").Inc()
		writeRPCFailure(w, id)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, id interface{}, media string) {
	list := s.player.List()
	idx := s.player.Index()
	now := clock.GetSec()

	switch media {
	case "current":
		writeRPCResult(w, id, s.buildQueryResult(s.player.CurrentMedia(), idx, now))
	case "next":
		if idx < 0 || idx >= len(list) {
			writeRPCFailure(w, id)
			return
		}
		writeRPCResult(w, id, s.buildQueryResult(list[idx], idx, now))
	case "last":
		target := idx - 2
		if target < 0 || target >= len(list) {
			writeRPCFailure(w, id)
			return
		}
		writeRPCResult(w, id, s.buildQueryResult(list[target], target, now))
	default:
		writeRPCFailure(w, id)
	}
}

func (s *Server) buildQueryResult(m domain.Media, idx int, now float64) queryResult {
	start := m.BeginSec()
	played := now - start
	if played < 0 {
		played = 0
	}
	remaining := m.Out - played
	if remaining < 0 {
		remaining = 0
	}
	return queryResult{
		PlayMode:     s.playMode,
		Index:        idx,
		StartSec:     start,
		StartTime:    formatClock(start),
		PlayedSec:    played,
		RemainingSec: remaining,
		CurrentMedia: m,
	}
}
