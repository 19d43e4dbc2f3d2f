// Package session holds who the local player is and where they sit.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sortalost/blackjack/game"
)

var (
	ErrInvalidName  = errors.New("name must not be blank")
	ErrAlreadyBound = errors.New("session already bound to a room")
	ErrInvalidSeat  = game.ErrInvalidSeat
)

// Session is the identity of the local player: a display name and, once
// matchmaking succeeded, the room and seat they play in.
type Session struct {
	mu   sync.RWMutex
	name string
	room string
	seat game.Seat
}

func New() *Session {
	return &Session{}
}

// SetIdentity sets the display name. Surrounding whitespace is dropped.
func (s *Session) SetIdentity(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	return nil
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Bind records the room and seat obtained from matchmaking. It can be called
// once per match: a second call without Reset fails with ErrAlreadyBound.
func (s *Session) Bind(room string, seat game.Seat) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return ErrInvalidName
	}
	if !seat.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeat, seat)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seat != game.SeatNone {
		return fmt.Errorf("%w: %s as %s", ErrAlreadyBound, s.room, s.seat)
	}
	s.room = room
	s.seat = seat
	return nil
}

// Reset forgets the room and seat; the display name is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = ""
	s.seat = game.SeatNone
}

func (s *Session) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *Session) Seat() game.Seat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seat
}

// Bound reports whether the session has a room and a seat.
func (s *Session) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seat != game.SeatNone
}
