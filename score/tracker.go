// Package score keeps the player's results for the lifetime of the client.
//
// Tracker is append-only: every finished match adds one Entry to the
// history and updates the Record. There is no way to remove or decrement.
package score

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sortalost/blackjack/game"
)

var ErrUnknownOutcome = errors.New("unknown outcome")

// Record is the running score shown as wins/games.
type Record struct {
	Wins  uint `json:"wins"`
	Games uint `json:"games"`
}

func (r Record) String() string {
	return fmt.Sprintf("%d/%d", r.Wins, r.Games)
}

// Entry is one finished match.
type Entry struct {
	Index     int          `json:"index"`
	Timestamp int64        `json:"timestamp"`
	Room      string       `json:"room"`
	Outcome   game.Outcome `json:"outcome"`
}

// Journal receives every entry after it was added to the in-memory record.
type Journal interface {
	AppendOutcome(ctx context.Context, e Entry) error
}

type Tracker struct {
	mu      sync.RWMutex
	record  Record
	entries []Entry
	journal Journal
	now     func() time.Time
}

type Option func(*Tracker)

// WithJournal mirrors every recorded outcome to j.
func WithJournal(j Journal) Option {
	return func(t *Tracker) {
		t.journal = j
	}
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make([]Entry, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordOutcome counts one finished match played in room. Games always
// grows by one, Wins only on a win. A journal error is returned after the
// in-memory record has been updated; it is never rolled back.
func (t *Tracker) RecordOutcome(ctx context.Context, room string, o game.Outcome) error {
	switch o {
	case game.OutcomeWin, game.OutcomeLoss, game.OutcomeDraw:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, o)
	}

	t.mu.Lock()
	t.record.Games++
	if o == game.OutcomeWin {
		t.record.Wins++
	}
	e := Entry{
		Index:     len(t.entries),
		Timestamp: t.now().Unix(),
		Room:      room,
		Outcome:   o,
	}
	t.entries = append(t.entries, e)
	journal := t.journal
	t.mu.Unlock()

	if journal == nil {
		return nil
	}
	if err := journal.AppendOutcome(ctx, e); err != nil {
		return fmt.Errorf("journal outcome %d: %w", e.Index, err)
	}
	return nil
}

func (t *Tracker) Record() Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.record
}

// History returns a copy of all entries, oldest first.
func (t *Tracker) History() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h := make([]Entry, len(t.entries))
	copy(h, t.entries)
	return h
}

// GetLatest returns the most recent entry.
func (t *Tracker) GetLatest() (Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.entries) == 0 {
		return Entry{}, fmt.Errorf("no match recorded")
	}
	return t.entries[len(t.entries)-1], nil
}

// Verify checks that the history is contiguous and adds up to the record.
func (t *Tracker) Verify() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var wins uint
	for i, e := range t.entries {
		if e.Index != i {
			return fmt.Errorf("invalid index: expected %d, got %d", i, e.Index)
		}
		if i > 0 && e.Timestamp < t.entries[i-1].Timestamp {
			return fmt.Errorf("entry %d recorded before entry %d", i, i-1)
		}
		if e.Outcome == game.OutcomeWin {
			wins++
		}
	}
	if uint(len(t.entries)) != t.record.Games {
		return fmt.Errorf("games mismatch: %d entries, record says %d", len(t.entries), t.record.Games)
	}
	if wins != t.record.Wins {
		return fmt.Errorf("wins mismatch: %d in history, record says %d", wins, t.record.Wins)
	}
	return nil
}
