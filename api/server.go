package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
	"github.com/wricardo/mcp-training/marsmission/game/service"
	"github.com/wricardo/mcp-training/marsmission/game/session"
)

// Broadcaster pushes game snapshots to WebSocket subscribers
type Broadcaster interface {
	ServeWS(w http.ResponseWriter, r *http.Request, gameID string, initial *engine.Snapshot)
	BroadcastSnapshot(gameID string, snapshot engine.Snapshot)
	CloseGame(gameID string)
}

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       Broadcaster
	router    *mux.Router
	adminHash []byte
	logger    zerolog.Logger
}

// NewServer creates a new API server. adminHash is the bcrypt hash of the
// password required by the admin endpoints.
func NewServer(gameService service.GameService, hub Broadcaster, adminHash []byte, logger zerolog.Logger) *Server {
	s := &Server{
		service:   gameService,
		hub:       hub,
		router:    mux.NewRouter(),
		adminHash: adminHash,
		logger:    logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Admin
	api.HandleFunc("/admin/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/admin/sessions/{id}/start", s.handleStartSession).Methods("POST")
	api.HandleFunc("/admin/sessions/{id}/end", s.handleEndSession).Methods("POST")
	api.HandleFunc("/admin/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Sessions
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/join", s.handleJoinSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/board", s.handleGetBoard).Methods("GET")

	// Player commands
	api.HandleFunc("/move", s.handleMove).Methods("POST")
	api.HandleFunc("/turn", s.handleTurn).Methods("POST")
	api.HandleFunc("/ingenuity", s.handleIngenuity).Methods("POST")
	api.HandleFunc("/players/{token}", s.handleGetPlayer).Methods("GET")
	api.HandleFunc("/players/{token}/history", s.handleGetHistory).Methods("GET")

	// Maps
	api.HandleFunc("/maps", s.handleListMaps).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code engine.Code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": string(code)})
}

// respondServiceError maps a game error code to its HTTP status
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	code := engine.CodeOf(err)
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
		if code == "" {
			code = "INTERNAL"
		}
	}
	respondError(w, status, code, err.Error())
}

func statusForCode(code engine.Code) int {
	switch code {
	case engine.CodeValidation, engine.CodeOutOfBounds, engine.CodeIngenuityTooFar, engine.CodeNotEnoughBattery:
		return http.StatusBadRequest
	case engine.CodeUnknownToken, engine.CodeGameNotFound:
		return http.StatusNotFound
	case engine.CodeInvalidState, engine.CodeDuplicateName:
		return http.StatusConflict
	case engine.CodeUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes the request body into v, reporting a validation error on bad input
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return engine.NewError(engine.CodeValidation, "request body required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var gameErr *engine.Error
		if errors.As(err, &gameErr) {
			return gameErr
		}
		return engine.NewError(engine.CodeValidation, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// checkAdmin compares password against the configured bcrypt hash
func (s *Server) checkAdmin(password string) error {
	if len(s.adminHash) == 0 || password == "" {
		return engine.NewError(engine.CodeUnauthorized, "invalid admin password")
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return engine.NewError(engine.CodeUnauthorized, "invalid admin password")
	}
	return nil
}

type adminRequest struct {
	Password string `json:"password"`
}

// decodeAdmin decodes an admin request body into v and checks its password
func (s *Server) decodeAdmin(r *http.Request, v interface{}, password *string) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	if err := s.checkAdmin(*password); err != nil {
		s.logger.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("rejected admin request")
		return err
	}
	return nil
}

// broadcast pushes the latest snapshot of gameID to WebSocket subscribers
func (s *Server) broadcast(r *http.Request, gameID string) {
	if s.hub == nil {
		return
	}
	info, err := s.service.GetSession(r.Context(), gameID)
	if err != nil || info.Snapshot == nil {
		return
	}
	s.hub.BroadcastSnapshot(info.ID, *info.Snapshot)
}

// Admin Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := s.decodeAdmin(r, &req, &req.Password); err != nil {
		s.respondServiceError(w, err)
		return
	}

	info, err := s.service.CreateSession(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"game_id": info.ID,
		"session": info,
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		adminRequest
		RechargePointsPerSecond int `json:"recharge_points_per_second"`
	}
	if err := s.decodeAdmin(r, &req, &req.Password); err != nil {
		s.respondServiceError(w, err)
		return
	}

	gameID := mux.Vars(r)["id"]
	options := engine.DefaultGamePlayOptions().WithRechargePointsPerSecond(req.RechargePointsPerSecond)
	info, err := s.service.StartSession(r.Context(), gameID, options)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.broadcast(r, gameID)
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := s.decodeAdmin(r, &req, &req.Password); err != nil {
		s.respondServiceError(w, err)
		return
	}

	gameID := mux.Vars(r)["id"]
	info, err := s.service.EndSession(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.broadcast(r, gameID)
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := s.decodeAdmin(r, &req, &req.Password); err != nil {
		s.respondServiceError(w, err)
		return
	}

	gameID := mux.Vars(r)["id"]
	if err := s.service.DeleteSession(r.Context(), gameID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.CloseGame(session.CanonicalGameID(gameID))
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", gameID),
	})
}

// Session Handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondServiceError(w, err)
		return
	}

	gameID := mux.Vars(r)["id"]
	player, err := s.service.JoinSession(r.Context(), gameID, req.Name)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.broadcast(r, player.GameID)
	respondJSON(w, http.StatusCreated, player)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	blockSize := 0
	if raw := r.URL.Query().Get("block"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, engine.CodeValidation, "block must be a positive integer")
			return
		}
		blockSize = n
	}

	board, err := s.service.GetBoard(r.Context(), mux.Vars(r)["id"], blockSize)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// Player Handlers

type commandRequest struct {
	Token     string `json:"token"`
	Direction string `json:"direction"`
}

func (s *Server) decodeCommand(r *http.Request) (string, engine.Direction, error) {
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", 0, err
	}
	if req.Token == "" {
		return "", 0, engine.NewError(engine.CodeValidation, "token is required")
	}
	direction, err := engine.ParseDirection(req.Direction)
	if err != nil {
		return "", 0, err
	}
	return req.Token, direction, nil
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	token, direction, err := s.decodeCommand(r)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	result, err := s.service.MoveRover(r.Context(), token, direction)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	if result.Message.Moved() {
		s.broadcast(r, result.GameID)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	token, direction, err := s.decodeCommand(r)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	result, err := s.service.TurnRover(r.Context(), token, direction)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.broadcast(r, result.GameID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngenuity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string `json:"token"`
		Drone  int    `json:"drone"`
		Row    *int   `json:"row"`
		Column *int   `json:"column"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondServiceError(w, err)
		return
	}
	if req.Token == "" || req.Row == nil || req.Column == nil {
		respondError(w, http.StatusBadRequest, engine.CodeValidation, "token, row and column are required")
		return
	}

	result, err := s.service.MoveIngenuity(r.Context(), req.Token, req.Drone, engine.Location{Row: *req.Row, Column: *req.Column})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	if result.Message.Moved() {
		s.broadcast(r, result.GameID)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.service.GetPlayer(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, player)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := service.HistoryOptions{Order: query.Get("order")}
	if page := query.Get("page"); page != "" {
		opts.Page, _ = strconv.Atoi(page)
	}
	if limit := query.Get("limit"); limit != "" {
		opts.Limit, _ = strconv.Atoi(limit)
	}
	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		respondError(w, http.StatusBadRequest, engine.CodeValidation, "order must be 'asc' or 'desc'")
		return
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["token"], opts)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// Map Handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.service.ListMaps(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(maps),
		"maps":  maps,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, engine.CodeValidation, "game parameter required")
		return
	}

	info, err := s.service.GetSession(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "websocket hub not running")
		return
	}

	s.hub.ServeWS(w, r, info.ID, info.Snapshot)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
