package match

import (
	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/score"
)

type EventKind string

const (
	EventPhase    EventKind = "phase"
	EventSnapshot EventKind = "snapshot"
	EventOutcome  EventKind = "outcome"
	// EventError carries a recoverable error; polling continues.
	EventError EventKind = "error"
	// EventFatal means polling for the current match stopped for good.
	EventFatal EventKind = "fatal"
)

// Event is what the UI renders. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Phase    game.Phase
	Snapshot game.Snapshot
	Outcome  game.Outcome
	Record   score.Record
	Err      error
}
