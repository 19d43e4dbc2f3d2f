// Package matchmaker places a session in a room: by creating one, by joining
// one, or through the server's random-match queue.
//
// Every operation either binds the session or leaves it untouched.
package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sortalost/blackjack/api"
	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/session"
)

var (
	ErrRoomTaken          = errors.New("room already exists")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrUnexpectedResponse = errors.New("unexpected matchmaking response")
)

const DefaultRetryInterval = 2 * time.Second

// Lobby is the part of the server API used for matchmaking.
// *api.Client implements it.
type Lobby interface {
	CreateRoom(ctx context.Context, room, name string) (api.Message, error)
	JoinRoom(ctx context.Context, room, name string) (api.Message, error)
	RandomMatch(ctx context.Context, name string) (api.Pairing, error)
}

type Matchmaker struct {
	lobby         Lobby
	retryInterval time.Duration
	onQueued      func(attempt int)
	logger        *slog.Logger
}

type Option func(Matchmaker) Matchmaker

// WithRetryInterval sets the pause between two random-match requests while
// the player is queued.
func WithRetryInterval(d time.Duration) Option {
	return func(m Matchmaker) Matchmaker {
		if d > 0 {
			m.retryInterval = d
		}
		return m
	}
}

// WithQueueHandler registers f to be called each time the server answers
// that the player is still queued.
func WithQueueHandler(f func(attempt int)) Option {
	return func(m Matchmaker) Matchmaker {
		m.onQueued = f
		return m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m Matchmaker) Matchmaker {
		if logger != nil {
			m.logger = logger
		}
		return m
	}
}

func New(lobby Lobby, opts ...Option) *Matchmaker {
	m := Matchmaker{
		lobby:         lobby,
		retryInterval: DefaultRetryInterval,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		m = opt(m)
	}
	return &m
}

// CreateRoom opens room on the server and binds s to seat p1.
func (m *Matchmaker) CreateRoom(ctx context.Context, s *session.Session, room string) error {
	name, room, err := precheck(s, room, true)
	if err != nil {
		return err
	}
	if _, err := m.lobby.CreateRoom(ctx, room, name); err != nil {
		return classify(err)
	}
	m.logger.Info("room created", "room", room, "name", name)
	return s.Bind(room, game.SeatP1)
}

// JoinRoom takes the second seat of room and binds s to seat p2.
func (m *Matchmaker) JoinRoom(ctx context.Context, s *session.Session, room string) error {
	name, room, err := precheck(s, room, true)
	if err != nil {
		return err
	}
	if _, err := m.lobby.JoinRoom(ctx, room, name); err != nil {
		return classify(err)
	}
	m.logger.Info("room joined", "room", room, "name", name)
	return s.Bind(room, game.SeatP2)
}

// TryRandomMatch sends a single queue request. It reports queued == true
// when the server has no opponent yet; otherwise s is bound to the room and
// seat the server picked.
func (m *Matchmaker) TryRandomMatch(ctx context.Context, s *session.Session) (queued bool, err error) {
	name, _, err := precheck(s, "", false)
	if err != nil {
		return false, err
	}
	p, err := m.lobby.RandomMatch(ctx, name)
	if err != nil {
		return false, classify(err)
	}
	if p.Queued() {
		return true, nil
	}
	seat, err := game.ParseSeat(p.Player)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if strings.TrimSpace(p.Room) == "" {
		return false, fmt.Errorf("%w: pairing without room", ErrUnexpectedResponse)
	}
	m.logger.Info("paired", "room", p.Room, "seat", seat)
	return false, s.Bind(p.Room, seat)
}

// RandomMatch queues s until the server pairs it or ctx is done. ctx is the
// only cancellation token: once it is done no further request is sent and
// the pending timer is stopped.
func (m *Matchmaker) RandomMatch(ctx context.Context, s *session.Session) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		queued, err := m.TryRandomMatch(ctx, s)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if !queued {
			return nil
		}
		m.logger.Debug("still queued", "attempt", attempt, "retry_in", m.retryInterval)
		if m.onQueued != nil {
			m.onQueued(attempt)
		}
		timer := time.NewTimer(m.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func precheck(s *session.Session, room string, needRoom bool) (string, string, error) {
	name := strings.TrimSpace(s.Name())
	if name == "" {
		return "", "", session.ErrInvalidName
	}
	room = strings.TrimSpace(room)
	if needRoom && room == "" {
		return "", "", session.ErrInvalidName
	}
	if s.Bound() {
		return "", "", fmt.Errorf("%w: %s", session.ErrAlreadyBound, s.Room())
	}
	return name, room, nil
}

// classify maps the server's error payload onto the matchmaking errors.
// The server reports them as free text, so the status code and a few
// keywords are both used.
func classify(err error) error {
	apiErr, ok := api.AsError(err)
	if !ok {
		return err
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(msg, "not found"),
		strings.Contains(msg, "not exist"),
		strings.Contains(msg, "doesn't exist"),
		strings.Contains(msg, "no such"):
		return fmt.Errorf("%w: %w", ErrRoomNotFound, err)
	case strings.Contains(msg, "full"):
		return fmt.Errorf("%w: %w", ErrRoomFull, err)
	case apiErr.StatusCode == http.StatusConflict,
		strings.Contains(msg, "exist"),
		strings.Contains(msg, "taken"):
		return fmt.Errorf("%w: %w", ErrRoomTaken, err)
	case apiErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrRoomNotFound, err)
	}
	return err
}
