package game

import (
	"fmt"
	"strings"
)

// Seat is a player's position in a room. The zero value is unassigned.
type Seat string

const (
	SeatNone Seat = ""
	SeatP1   Seat = "p1"
	SeatP2   Seat = "p2"
)

// Valid reports whether s is one of the two playable seats.
func (s Seat) Valid() bool {
	return s == SeatP1 || s == SeatP2
}

// ParseSeat converts the wire value ("p1", "p2") to a Seat.
func ParseSeat(s string) (Seat, error) {
	seat := Seat(strings.ToLower(strings.TrimSpace(s)))
	if !seat.Valid() {
		return SeatNone, fmt.Errorf("%w: %q", ErrInvalidSeat, s)
	}
	return seat, nil
}

// Draw is the winner value the server reports for a tie.
const Draw = "draw"

// Phase is the lifecycle phase of the local player's match.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseWaiting    Phase = "waiting_for_opponent"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Pollable reports whether the server must be polled while in this phase.
func (p Phase) Pollable() bool {
	return p == PhaseWaiting || p == PhaseInProgress
}

// Status is the server's view of a room.
type Status string

const (
	StatusUnknown  Status = ""
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ParseStatus normalizes the status spellings used by the different server
// builds ("playing" and "in_progress" mean the same thing).
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "waiting", "waiting_for_opponent":
		return StatusWaiting
	case "playing", "in_progress":
		return StatusPlaying
	case "finished", "done", "over":
		return StatusFinished
	}
	return StatusUnknown
}

// Move is a player action.
type Move string

const (
	MoveHit   Move = "hit"
	MoveStand Move = "stand"
)

// ParseMove validates a move typed by the user.
func ParseMove(s string) (Move, error) {
	switch m := Move(strings.ToLower(strings.TrimSpace(s))); m {
	case MoveHit, MoveStand:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMove, s)
}

// Outcome is the result of a finished match from the local seat's view.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Resolve maps the server's winner field to an outcome for seat.
func Resolve(winner string, seat Seat) Outcome {
	switch {
	case winner == Draw:
		return OutcomeDraw
	case winner != "" && Seat(winner) == seat:
		return OutcomeWin
	}
	return OutcomeLoss
}
