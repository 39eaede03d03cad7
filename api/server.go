// Package api is the HTTP surface: a JSON REST API over the game service
// plus the websocket endpoint for event push.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/railfortune/railfortune/game/engine"
	"github.com/railfortune/railfortune/game/service"
	ws "github.com/railfortune/railfortune/transport/websocket"
)

// Server holds the router and its dependencies.
type Server struct {
	svc    service.GameService
	hub    *ws.Hub
	logger *log.Logger
	router *mux.Router
}

// NewServer builds the router. The hub may be nil when websocket push is
// not wanted (tests, headless tools).
func NewServer(svc service.GameService, hub *ws.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		svc:    svc,
		hub:    hub,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

// Router exposes the handler for http.Server and tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/configs", s.handleListConfigs).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGetState).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/events", s.handleGetEvents).Methods(http.MethodGet)

	api.HandleFunc("/sessions/{id}/roll", s.handleRoll).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/branch", s.handleBranch).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/cards/use", s.handleUseCard).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/cards/buy", s.handleBuyCard).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/properties/{propertyID}/buy", s.handleBuyProperty).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/properties/{propertyID}/sell", s.handleSellProperty).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/properties/{propertyID}/upgrade", s.handleUpgradeProperty).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/end-turn", s.handleEndTurn).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/computer-turn", s.handleComputerTurn).Methods(http.MethodPost)

	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.ServeWS)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"configs": s.svc.ListConfigs(r.Context())})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.svc.CreateGame(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"state":      sess.Manager.State(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.svc.ListSessions(r.Context())})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.GetState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an integer")
			return
		}
		since = parsed
	}
	events, err := s.svc.GetEvents(r.Context(), mux.Vars(r)["id"], since)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"next":   since + len(events),
	})
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.RollAndMove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBranch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StationID string `json:"station_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StationID == "" {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}
	out, err := s.svc.ChooseBranch(r.Context(), mux.Vars(r)["id"], req.StationID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUseCard(w http.ResponseWriter, r *http.Request) {
	var req service.UseCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == "" {
		writeError(w, http.StatusBadRequest, "card_id is required")
		return
	}
	out, err := s.svc.UseCard(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuyCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := s.svc.BuyCard(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBuyProperty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := s.svc.BuyProperty(r.Context(), vars["id"], vars["propertyID"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSellProperty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := s.svc.SellProperty(r.Context(), vars["id"], vars["propertyID"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpgradeProperty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := s.svc.UpgradeProperty(r.Context(), vars["id"], vars["propertyID"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.EndTurn(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleComputerTurn(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.ComputerTurn(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// writeServiceError maps service and engine errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrGameOver),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrNoPendingChoice),
		errors.Is(err, service.ErrNotComputerTurn):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
