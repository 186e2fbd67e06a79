package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
	"github.com/wricardo/mcp-training/marsmission/game/service"
)

// Client talks to the game server REST API on behalf of one rover
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is an error body returned by the server
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Session fetches a game's summary
func (c *Client) Session(ctx context.Context, gameID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, "GET", "/api/sessions/"+url.PathEscape(gameID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Join adds a rover to the game and remembers its token
func (c *Client) Join(ctx context.Context, gameID, name string) (*service.PlayerState, error) {
	var player service.PlayerState
	body := map[string]string{"name": name}
	if err := c.do(ctx, "POST", "/api/sessions/"+url.PathEscape(gameID)+"/join", body, &player); err != nil {
		return nil, err
	}
	c.token = player.Token
	return &player, nil
}

// Board fetches the full resolution board of a game
func (c *Client) Board(ctx context.Context, gameID string) (*service.BoardView, error) {
	var board service.BoardView
	if err := c.do(ctx, "GET", "/api/sessions/"+url.PathEscape(gameID)+"/board", nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// Player fetches the rover's current state
func (c *Client) Player(ctx context.Context) (*service.PlayerState, error) {
	var player service.PlayerState
	if err := c.do(ctx, "GET", "/api/players/"+url.PathEscape(c.token), nil, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Execute sends a single rover command
func (c *Client) Execute(ctx context.Context, d engine.Direction) (*service.MoveResponse, error) {
	path := "/api/move"
	if d.IsTurn() {
		path = "/api/turn"
	}

	var result service.MoveResponse
	body := map[string]string{"token": c.token, "direction": d.String()}
	if err := c.do(ctx, "POST", path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
