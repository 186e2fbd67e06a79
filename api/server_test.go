package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
	"github.com/wricardo/mcp-training/marsmission/game/service"
	"github.com/wricardo/mcp-training/marsmission/game/session"
	"github.com/wricardo/mcp-training/marsmission/transport/websocket"
)

const testPassword = "olympus-mons"

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context) (*service.SessionInfo, error)
	StartSessionFunc  func(ctx context.Context, gameID string, options engine.GamePlayOptions) (*service.SessionInfo, error)
	EndSessionFunc    func(ctx context.Context, gameID string) (*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, gameID string) error
	GetSessionFunc    func(ctx context.Context, gameID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)

	// Players
	JoinSessionFunc    func(ctx context.Context, gameID, name string) (*service.PlayerState, error)
	GetPlayerFunc      func(ctx context.Context, token string) (*service.PlayerState, error)
	GetMoveHistoryFunc func(ctx context.Context, token string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Game Operations
	MoveRoverFunc     func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error)
	TurnRoverFunc     func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error)
	MoveIngenuityFunc func(ctx context.Context, token string, drone int, destination engine.Location) (*service.MoveResponse, error)

	// Board and Maps
	GetBoardFunc func(ctx context.Context, gameID string, blockSize int) (*service.BoardView, error)
	ListMapsFunc func(ctx context.Context) ([]*service.MapSummary, error)
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx)
	}
	return &service.SessionInfo{ID: "a", MapName: "jezero", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) StartSession(ctx context.Context, gameID string, options engine.GamePlayOptions) (*service.SessionInfo, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, gameID, options)
	}
	return &service.SessionInfo{ID: gameID, State: engine.Playing}, nil
}

func (m *MockGameService) EndSession(ctx context.Context, gameID string) (*service.SessionInfo, error) {
	if m.EndSessionFunc != nil {
		return m.EndSessionFunc(ctx, gameID)
	}
	return &service.SessionInfo{ID: gameID, State: engine.Finished}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, gameID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, gameID)
	}
	return nil
}

func (m *MockGameService) GetSession(ctx context.Context, gameID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, gameID)
	}
	return &service.SessionInfo{
		ID:       gameID,
		MapName:  "jezero",
		Snapshot: &engine.Snapshot{MapName: "jezero", Width: 7, Height: 7},
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

// Players
func (m *MockGameService) JoinSession(ctx context.Context, gameID, name string) (*service.PlayerState, error) {
	if m.JoinSessionFunc != nil {
		return m.JoinSessionFunc(ctx, gameID, name)
	}
	return &service.PlayerState{GameID: gameID, PlayerInfo: engine.PlayerInfo{Token: "tok", Name: name}}, nil
}

func (m *MockGameService) GetPlayer(ctx context.Context, token string) (*service.PlayerState, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, token)
	}
	return &service.PlayerState{GameID: "a", PlayerInfo: engine.PlayerInfo{Token: token}}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, token string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, token, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Game Operations
func (m *MockGameService) MoveRover(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
	if m.MoveRoverFunc != nil {
		return m.MoveRoverFunc(ctx, token, direction)
	}
	return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Message: engine.MovedSuccessfully}}, nil
}

func (m *MockGameService) TurnRover(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
	if m.TurnRoverFunc != nil {
		return m.TurnRoverFunc(ctx, token, direction)
	}
	return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Message: engine.TurnedOK}}, nil
}

func (m *MockGameService) MoveIngenuity(ctx context.Context, token string, drone int, destination engine.Location) (*service.MoveResponse, error) {
	if m.MoveIngenuityFunc != nil {
		return m.MoveIngenuityFunc(ctx, token, drone, destination)
	}
	return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Location: destination, Message: engine.MovedSuccessfully}}, nil
}

// Board and Maps
func (m *MockGameService) GetBoard(ctx context.Context, gameID string, blockSize int) (*service.BoardView, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, gameID, blockSize)
	}
	return &service.BoardView{GameID: gameID, BlockSize: blockSize}, nil
}

func (m *MockGameService) ListMaps(ctx context.Context) ([]*service.MapSummary, error) {
	if m.ListMapsFunc != nil {
		return m.ListMapsFunc(ctx)
	}
	return []*service.MapSummary{}, nil
}

// recordingHub records broadcasts instead of writing to sockets
type recordingHub struct {
	snapshots []string
	closed    []string
}

func (h *recordingHub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string, initial *engine.Snapshot) {
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (h *recordingHub) BroadcastSnapshot(gameID string, snapshot engine.Snapshot) {
	h.snapshots = append(h.snapshots, gameID)
}

func (h *recordingHub) CloseGame(gameID string) {
	h.closed = append(h.closed, gameID)
}

func adminHash(t *testing.T) []byte {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return hash
}

func setupTestServer(t *testing.T, mockService *MockGameService) (*Server, *recordingHub) {
	hub := &recordingHub{}
	return NewServer(mockService, hub, adminHash(t), zerolog.Nop()), hub
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

// Admin Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Create session",
			requestBody:    map[string]string{"password": testPassword},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Wrong password",
			requestBody:    map[string]string{"password": "phobos"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "Missing password",
			requestBody:    map[string]string{},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "Missing body",
			requestBody:    nil,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION",
		},
		{
			name:        "Handle service error",
			requestBody: map[string]string{"password": testPassword},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server, _ := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/admin/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var resp map[string]interface{}
			parseResponse(t, w, &resp)
			if tt.expectedCode != "" {
				if resp["code"] != tt.expectedCode {
					t.Errorf("Expected code %s, got %v", tt.expectedCode, resp["code"])
				}
				return
			}
			if resp["game_id"] != "a" {
				t.Errorf("Expected game_id a, got %v", resp["game_id"])
			}
		})
	}
}

func TestStartSession(t *testing.T) {
	var gotOptions engine.GamePlayOptions
	mockService := &MockGameService{
		StartSessionFunc: func(ctx context.Context, gameID string, options engine.GamePlayOptions) (*service.SessionInfo, error) {
			if gameID == "zz" {
				return nil, engine.NewError(engine.CodeGameNotFound, "game zz not found")
			}
			if gameID == "b" {
				return nil, engine.NewError(engine.CodeInvalidState, "game already started")
			}
			gotOptions = options
			return &service.SessionInfo{ID: gameID, State: engine.Playing}, nil
		},
	}
	server, hub := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		gameID         string
		body           map[string]interface{}
		expectedStatus int
	}{
		{"Start with recharge", "a", map[string]interface{}{"password": testPassword, "recharge_points_per_second": 2}, http.StatusOK},
		{"Unknown game", "zz", map[string]interface{}{"password": testPassword}, http.StatusNotFound},
		{"Already started", "b", map[string]interface{}{"password": testPassword}, http.StatusConflict},
		{"Wrong password", "a", map[string]interface{}{"password": "deimos"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/admin/sessions/"+tt.gameID+"/start", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	if gotOptions.RechargePointsPerSecond != 2 {
		t.Errorf("Expected recharge 2, got %d", gotOptions.RechargePointsPerSecond)
	}
	if len(hub.snapshots) != 1 || hub.snapshots[0] != "a" {
		t.Errorf("Expected one broadcast for game a, got %v", hub.snapshots)
	}
}

func TestEndAndDeleteSession(t *testing.T) {
	server, hub := setupTestServer(t, &MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/admin/sessions/a/end", map[string]string{"password": testPassword}))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	if info.State != engine.Finished {
		t.Errorf("Expected Finished, got %s", info.State)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/admin/sessions/a", map[string]string{"password": testPassword}))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(hub.closed) != 1 || hub.closed[0] != "a" {
		t.Errorf("Expected game a to be closed on the hub, got %v", hub.closed)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/admin/sessions/a", map[string]string{"password": "nope"}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

// Session Tests

func TestListSessions(t *testing.T) {
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a", MapName: "jezero", State: engine.Playing, PlayerCount: 2},
				{ID: "b", MapName: "gale", State: engine.NotStarted},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || resp.Sessions[0].PlayerCount != 2 || resp.Sessions[1].MapName != "gale" {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, gameID string) (*service.SessionInfo, error) {
			if gameID != "a" {
				return nil, engine.NewError(engine.CodeGameNotFound, "game not found")
			}
			return &service.SessionInfo{ID: "a", MapName: "jezero"}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/api/sessions/a", http.StatusOK},
		{"/api/sessions/q", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", tt.path, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestJoinSession(t *testing.T) {
	mockService := &MockGameService{
		JoinSessionFunc: func(ctx context.Context, gameID, name string) (*service.PlayerState, error) {
			switch name {
			case "":
				return nil, engine.NewError(engine.CodeValidation, "name is required")
			case "taken":
				return nil, engine.NewError(engine.CodeDuplicateName, "player name already taken")
			}
			return &service.PlayerState{GameID: gameID, PlayerInfo: engine.PlayerInfo{Token: "tok-1", Name: name}}, nil
		},
	}
	server, hub := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"Join", map[string]string{"name": "ada"}, http.StatusCreated},
		{"Empty name", map[string]string{"name": ""}, http.StatusBadRequest},
		{"Duplicate name", map[string]string{"name": "taken"}, http.StatusConflict},
		{"Malformed body", "not-an-object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/a/join", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	if len(hub.snapshots) != 1 {
		t.Errorf("Expected one broadcast after join, got %d", len(hub.snapshots))
	}
}

func TestGetBoard(t *testing.T) {
	var gotBlock int
	mockService := &MockGameService{
		GetBoardFunc: func(ctx context.Context, gameID string, blockSize int) (*service.BoardView, error) {
			gotBlock = blockSize
			return &service.BoardView{GameID: gameID, BlockSize: blockSize}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	tests := []struct {
		query          string
		expectedStatus int
		expectedBlock  int
	}{
		{"", http.StatusOK, 0},
		{"?block=4", http.StatusOK, 4},
		{"?block=0", http.StatusBadRequest, 0},
		{"?block=x", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			gotBlock = 0
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/a/board"+tt.query, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotBlock != tt.expectedBlock {
				t.Errorf("Expected block %d, got %d", tt.expectedBlock, gotBlock)
			}
		})
	}
}

// Player Command Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		broadcasts     int
	}{
		{
			name: "Move forward",
			body: map[string]string{"token": "tok", "direction": "Forward"},
			setupMock: func(m *MockGameService) {
				m.MoveRoverFunc = func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
					if direction != engine.Forward {
						t.Errorf("Expected Forward, got %s", direction)
					}
					return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Message: engine.MovedSuccessfully}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			broadcasts:     1,
		},
		{
			name: "Lower case direction",
			body: map[string]string{"token": "tok", "direction": "backward"},
			setupMock: func(m *MockGameService) {
				m.MoveRoverFunc = func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
					if direction != engine.Backward {
						t.Errorf("Expected Backward, got %s", direction)
					}
					return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Message: engine.MovedSuccessfully}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			broadcasts:     1,
		},
		{
			name: "Blocked move does not broadcast",
			body: map[string]string{"token": "tok", "direction": "Forward"},
			setupMock: func(m *MockGameService) {
				m.MoveRoverFunc = func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
					return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Message: engine.MovedOutOfBounds}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			broadcasts:     0,
		},
		{
			name:           "Invalid direction",
			body:           map[string]string{"token": "tok", "direction": "Up"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing token",
			body:           map[string]string{"direction": "Forward"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown token",
			body: map[string]string{"token": "bogus", "direction": "Forward"},
			setupMock: func(m *MockGameService) {
				m.MoveRoverFunc = func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
					return nil, engine.NewError(engine.CodeUnknownToken, "unknown token")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Game not playing",
			body: map[string]string{"token": "tok", "direction": "Forward"},
			setupMock: func(m *MockGameService) {
				m.MoveRoverFunc = func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
					return nil, engine.NewError(engine.CodeInvalidState, "game is NotStarted")
				}
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server, hub := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/move", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if len(hub.snapshots) != tt.broadcasts {
				t.Errorf("Expected %d broadcasts, got %d", tt.broadcasts, len(hub.snapshots))
			}
		})
	}
}

func TestTurn(t *testing.T) {
	mockService := &MockGameService{
		TurnRoverFunc: func(ctx context.Context, token string, direction engine.Direction) (*service.MoveResponse, error) {
			if !direction.IsTurn() {
				return nil, engine.NewError(engine.CodeValidation, "turn direction must be Left or Right")
			}
			return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Orientation: engine.East, Message: engine.TurnedOK}}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/turn", map[string]string{"token": "tok", "direction": "Right"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.MoveResponse
	parseResponse(t, w, &resp)
	if resp.Orientation != engine.East || resp.Message != engine.TurnedOK {
		t.Errorf("Unexpected response %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/turn", map[string]string{"token": "tok", "direction": "Forward"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestIngenuity(t *testing.T) {
	var gotDrone int
	var gotDestination engine.Location
	mockService := &MockGameService{
		MoveIngenuityFunc: func(ctx context.Context, token string, drone int, destination engine.Location) (*service.MoveResponse, error) {
			gotDrone, gotDestination = drone, destination
			return &service.MoveResponse{GameID: "a", MoveResult: engine.MoveResult{Location: destination, Message: engine.MovedSuccessfully}}, nil
		},
	}
	server, hub := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/ingenuity", map[string]int{"drone": 0, "row": 0, "column": 3}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/ingenuity", map[string]interface{}{"token": "tok", "drone": 0, "row": 0}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without column, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/ingenuity", map[string]interface{}{"token": "tok", "drone": 0, "row": 0, "column": 3}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotDrone != 0 || gotDestination != (engine.Location{Row: 0, Column: 3}) {
		t.Errorf("Unexpected call drone=%d destination=%v", gotDrone, gotDestination)
	}
	if len(hub.snapshots) != 1 {
		t.Errorf("Expected one broadcast, got %d", len(hub.snapshots))
	}
}

func TestGetPlayer(t *testing.T) {
	mockService := &MockGameService{
		GetPlayerFunc: func(ctx context.Context, token string) (*service.PlayerState, error) {
			if token != "tok" {
				return nil, engine.NewError(engine.CodeUnknownToken, "unknown token")
			}
			return &service.PlayerState{GameID: "a", PlayerInfo: engine.PlayerInfo{Token: token, Name: "ada", BatteryLevel: 9}}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/players/tok", nil))
	var state service.PlayerState
	parseResponse(t, w, &state)
	if w.Code != http.StatusOK || state.Name != "ada" || state.BatteryLevel != 9 || state.GameID != "a" {
		t.Errorf("Unexpected response %d %+v", w.Code, state)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/players/other", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedOpts   service.HistoryOptions
	}{
		{"Defaults", "", http.StatusOK, service.HistoryOptions{}},
		{"Paged", "?page=2&limit=10", http.StatusOK, service.HistoryOptions{Page: 2, Limit: 10}},
		{"Ascending", "?order=asc", http.StatusOK, service.HistoryOptions{Order: "asc"}},
		{"Invalid order", "?order=sideways", http.StatusBadRequest, service.HistoryOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOpts service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, token string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					gotOpts = opts
					return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: 1, TotalPages: 1}, nil
				},
			}
			server, _ := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/players/tok/history"+tt.query, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotOpts != tt.expectedOpts {
				t.Errorf("Expected options %+v, got %+v", tt.expectedOpts, gotOpts)
			}
		})
	}
}

func TestListMapsAndHealth(t *testing.T) {
	mockService := &MockGameService{
		ListMapsFunc: func(ctx context.Context) ([]*service.MapSummary, error) {
			return []*service.MapSummary{{Name: "jezero", Width: 7, Height: 7}}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/maps", nil))
	var resp struct {
		Count int                   `json:"count"`
		Maps  []*service.MapSummary `json:"maps"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 1 || resp.Maps[0].Name != "jezero" {
		t.Errorf("Unexpected maps %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing game parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown game",
			queryParams: "?game=zz",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, gameID string) (*service.SessionInfo, error) {
					return nil, engine.NewError(engine.CodeGameNotFound, "game not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Valid game",
			queryParams:    "?game=a",
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server, _ := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// staticProvider serves fixed boards to a real registry
type staticProvider []*engine.Board

func (p staticProvider) LoadMaps() ([]*engine.Board, error) {
	return p, nil
}

// TestFullGameOverHTTP drives a real service and hub through the REST API
func TestFullGameOverHTTP(t *testing.T) {
	board, err := engine.NewBoard("crater", [][]int{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	registry, err := session.NewRegistry(staticProvider{board}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}

	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := NewServer(service.NewGameService(registry, zerolog.Nop()), hub, adminHash(t), zerolog.Nop())
	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest(method, path, body))
		return w
	}

	if w := do("POST", "/api/admin/sessions", map[string]string{"password": testPassword}); w.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d %s", w.Code, w.Body.String())
	}

	w := do("POST", "/api/sessions/a/join", map[string]string{"name": "ada"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Join failed: %d %s", w.Code, w.Body.String())
	}
	var player service.PlayerState
	parseResponse(t, w, &player)

	if w := do("POST", "/api/sessions/a/join", map[string]string{"name": " ADA "}); w.Code != http.StatusConflict {
		t.Errorf("Expected duplicate join to conflict, got %d", w.Code)
	}

	if w := do("POST", "/api/move", map[string]string{"token": player.Token, "direction": "Forward"}); w.Code != http.StatusConflict {
		t.Errorf("Expected move before start to conflict, got %d", w.Code)
	}

	if w := do("POST", "/api/admin/sessions/a/start", map[string]string{"password": testPassword}); w.Code != http.StatusOK {
		t.Fatalf("Start failed: %d %s", w.Code, w.Body.String())
	}

	w = do("POST", "/api/turn", map[string]string{"token": player.Token, "direction": "Left"})
	if w.Code != http.StatusOK {
		t.Fatalf("Turn failed: %d %s", w.Code, w.Body.String())
	}
	var turned service.MoveResponse
	parseResponse(t, w, &turned)
	if turned.Orientation != player.Orientation.Turn(engine.Left) {
		t.Errorf("Expected %s, got %s", player.Orientation.Turn(engine.Left), turned.Orientation)
	}

	w = do("GET", "/api/players/"+player.Token+"/history", nil)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	if history.TotalMoves != 1 {
		t.Errorf("Expected 1 recorded move, got %d", history.TotalMoves)
	}

	if w := do("POST", "/api/admin/sessions/a/end", map[string]string{"password": testPassword}); w.Code != http.StatusOK {
		t.Errorf("End failed: %d", w.Code)
	}
	if w := do("DELETE", "/api/admin/sessions/a", map[string]string{"password": testPassword}); w.Code != http.StatusOK {
		t.Errorf("Delete failed: %d", w.Code)
	}
	if w := do("GET", "/api/players/"+player.Token, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected deleted game token to be unknown, got %d", w.Code)
	}
}

// TestWebSocketGameIDIsCaseInsensitive subscribes with an upper-case ID and
// checks updates addressed to the stored ID still arrive.
func TestWebSocketGameIDIsCaseInsensitive(t *testing.T) {
	board, err := engine.NewBoard("crater", [][]int{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	registry, err := session.NewRegistry(staticProvider{board}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	if _, err := registry.MakeNewGame(); err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	api := NewServer(service.NewGameService(registry, zerolog.Nop()), hub, adminHash(t), zerolog.Nop())
	server := httptest.NewServer(api)
	defer server.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws?game=A", nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	read := func() websocket.Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var message websocket.Message
		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		return message
	}

	if initial := read(); initial.GameID != "a" {
		t.Errorf("Expected initial snapshot for game a, got %q", initial.GameID)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount("a") != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 1 client under a, got %d (A=%d)", hub.ClientCount("a"), hub.ClientCount("A"))
		}
		time.Sleep(5 * time.Millisecond)
	}

	w := httptest.NewRecorder()
	api.ServeHTTP(w, makeRequest("POST", "/api/sessions/a/join", map[string]string{"name": "ada"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("Join failed: %d %s", w.Code, w.Body.String())
	}

	joined := read()
	if joined.Event != websocket.EventSnapshot || joined.Snapshot == nil || len(joined.Snapshot.Players) != 1 {
		t.Errorf("Expected snapshot with 1 player, got %+v", joined)
	}

	w = httptest.NewRecorder()
	api.ServeHTTP(w, makeRequest("DELETE", "/api/admin/sessions/A", map[string]string{"password": testPassword}))
	if w.Code != http.StatusOK {
		t.Fatalf("Delete failed: %d %s", w.Code, w.Body.String())
	}
	if deleted := read(); deleted.Event != websocket.EventGameDeleted {
		t.Errorf("Expected %s event, got %q", websocket.EventGameDeleted, deleted.Event)
	}
}
