package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/seafrith/ninarow/engine"
)

const tickInterval = 50 * time.Millisecond

type Server struct {
	controller *GameController
	hub        *Hub
	log        zerolog.Logger
}

func New(controller *GameController, hub *Hub, log zerolog.Logger) *Server {
	s := &Server{controller: controller, hub: hub, log: log}
	controller.SetProgressSink(func(ds engine.DepthStats) {
		select {
		case hub.broadcastProgress <- progressFromStats(ds):
		default:
		}
	})
	return s
}

// Run drives the hub and the game tick loop until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.hub.Run(ctx.Done())
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.controller.Tick() {
				if entry, ok := s.controller.LatestHistoryEntry(); ok {
					s.hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}
				}
				s.hub.broadcastStatus <- snapshotToStatus(s.controller.Snapshot())
			}
		}
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", s.handlePing)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/start", s.handleStart)
	r.Post("/api/stop", s.handleStop)
	r.Post("/api/move", s.handleMove)
	r.Get("/api/hint", s.handleHint)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotToStatus(s.controller.Snapshot()))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Settings SettingsDTO `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	settings := settingsFromDTO(payload.Settings, s.controller.Settings())
	if settings.BoardSize < 3 || settings.WinLength < 3 || settings.WinLength > settings.BoardSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid board size or win length"})
		return
	}
	s.controller.Start(settings)
	status := snapshotToStatus(s.controller.Snapshot())
	writeJSON(w, http.StatusOK, status)
	s.hub.broadcastReset <- status
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.controller.Reset()
	status := snapshotToStatus(s.controller.Snapshot())
	writeJSON(w, http.StatusOK, status)
	s.hub.broadcastReset <- status
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var payload apiMove
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := s.controller.SubmitHumanMove(engine.Move{X: payload.X, Y: payload.Y}); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if entry, ok := s.controller.LatestHistoryEntry(); ok {
		s.hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}
	}
	status := snapshotToStatus(s.controller.Snapshot())
	s.hub.broadcastStatus <- status
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	result, err := s.controller.Hint(r.Context())
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, ErrNotRunning) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, hintResponse{
		Move:  result.Move,
		Score: result.Score,
		Depth: result.Depth,
		PV:    engine.FormatPV(result.PV),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
