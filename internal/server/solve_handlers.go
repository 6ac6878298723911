package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/territory"
)

// solveHandlers serves the solve-trigger and solve-lookup routes. It
// keeps the most recent runs in memory so a client can poll GET
// /solve/{id} after a POST /solve that already returned the same body.
type solveHandlers struct {
	engine *territory.Engine
	log    zerolog.Logger
	runs   *runStore
}

func (h *solveHandlers) handleSolve(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not configured")
		return
	}

	result, err := h.engine.Solve(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("solve failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.runs.Put(result)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func (h *solveHandlers) handleGetSolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, ok := h.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no solve found with that id")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// runStore retains the last `capacity` solve results in memory, keyed by
// RunID, so GET /solve/{id} can serve a run the server itself just
// produced without a round trip to the snapshot database.
type runStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	byID     map[string]territory.SolveResult
}

func newRunStore(capacity int) *runStore {
	return &runStore{
		capacity: capacity,
		byID:     make(map[string]territory.SolveResult),
	}
}

func (s *runStore) Put(result territory.SolveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[result.RunID]; !exists {
		s.order = append(s.order, result.RunID)
	}
	s.byID[result.RunID] = result

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}
}

func (s *runStore) Get(id string) (territory.SolveResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.byID[id]
	return result, ok
}
