package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Client talks to one room server. It holds no game state and is safe for
// concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// New returns a client for the server rooted at baseURL
// (for example "https://sortalost.is-a.dev/bj_api").
func New(baseURL string, opts ...Option) *Client {
	c := Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: "blackjack-client",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		c = opt(c)
	}
	return &c
}

// BaseURL returns the server root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorPayload struct {
	Error string `json:"error"`
}

// Do sends body (JSON encoded, may be nil) to path and decodes the response
// into out (may be nil). It never retries.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Op: "build request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read response", Err: err}
	}
	c.logger.Debug("request done",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if ok && len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	var payload errorPayload
	jsonErr := json.Unmarshal(content, &payload)
	if !ok {
		msg := strings.TrimSpace(payload.Error)
		if jsonErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	if jsonErr != nil {
		return &NetworkError{Op: "decode response", Err: jsonErr}
	}
	if payload.Error != "" {
		return &Error{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(content, out); err != nil {
		return &NetworkError{Op: "decode response", Err: err}
	}
	return nil
}

// CreateRoom asks the server to open room and seat name in it.
func (c *Client) CreateRoom(ctx context.Context, room, name string) (Message, error) {
	var msg Message
	err := c.Do(ctx, http.MethodPost, "/create_room", RoomRequest{Room: room, Name: name}, &msg)
	return msg, err
}

// JoinRoom takes the free seat of an existing room.
func (c *Client) JoinRoom(ctx context.Context, room, name string) (Message, error) {
	var msg Message
	err := c.Do(ctx, http.MethodPost, "/join_room", RoomRequest{Room: room, Name: name}, &msg)
	return msg, err
}

// RandomMatch enters (or polls) the matchmaking queue.
func (c *Client) RandomMatch(ctx context.Context, name string) (Pairing, error) {
	var p Pairing
	err := c.Do(ctx, http.MethodPost, "/random_match", QueueRequest{Name: name}, &p)
	return p, err
}

// Action submits move ("hit" or "stand") for player in room.
func (c *Client) Action(ctx context.Context, room, player, move string) (Message, error) {
	var msg Message
	err := c.Do(ctx, http.MethodPost, "/action", ActionRequest{Room: room, Player: player, Move: move}, &msg)
	return msg, err
}

// State reads the game state of room as seen by player.
func (c *Client) State(ctx context.Context, room, player string) (State, error) {
	q := url.Values{}
	q.Set("room", room)
	q.Set("player", player)
	var st State
	err := c.Do(ctx, http.MethodGet, "/state?"+q.Encode(), nil, &st)
	return st, err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := c.Do(ctx, http.MethodGet, "/stats", nil, &st)
	return st, err
}
