package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"spinbot.dev/spin-api-go/internal/orchestrator"
)

const defaultLogLimit = 50

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func logLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLogLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLogLimit
	}
	return n
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshots())
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := s.store.Snapshot(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown account: "+id)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGlobalLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.GlobalLog(logLimit(r)))
}

func (s *Server) handleAccountLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.Snapshot(id); !ok {
		writeError(w, http.StatusNotFound, "unknown account: "+id)
		return
	}
	writeJSON(w, http.StatusOK, s.store.AccountLog(id, logLimit(r)))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orch.StartAccount(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orchestrator.TriggerResult{Success: true, Message: "loop started"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orch.StopAccount(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orchestrator.TriggerResult{Success: true, Message: "loop stopped"})
}

// trigger funnels the manual action endpoints through a single shape.
func (s *Server) trigger(w http.ResponseWriter, r *http.Request, run func() (orchestrator.TriggerResult, error)) {
	res, err := run()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, res)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.trigger(w, r, func() (orchestrator.TriggerResult, error) {
		return s.orch.TriggerRefresh(r.Context(), id)
	})
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.trigger(w, r, func() (orchestrator.TriggerResult, error) {
		return s.orch.TriggerSpin(r.Context(), id)
	})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.trigger(w, r, func() (orchestrator.TriggerResult, error) {
		return s.orch.TriggerClaim(r.Context(), id)
	})
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.trigger(w, r, func() (orchestrator.TriggerResult, error) {
		return s.orch.TriggerFunds(r.Context(), id)
	})
}
