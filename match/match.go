// Package match drives one player through successive matches: matchmaking,
// polling, turn-gated moves and score keeping. It is the only type the
// user interface talks to.
package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sortalost/blackjack/api"
	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/matchmaker"
	"github.com/sortalost/blackjack/score"
	"github.com/sortalost/blackjack/session"
	"github.com/sortalost/blackjack/synchronizer"
)

const defaultEventBuffer = 64

// API is the server surface used by a Match. *api.Client implements it.
type API interface {
	matchmaker.Lobby
	synchronizer.StateFetcher
	Action(ctx context.Context, room, player, move string) (api.Message, error)
	Stats(ctx context.Context) (api.Stats, error)
}

type settings struct {
	pollInterval  time.Duration
	queueInterval time.Duration
	maxFailures   int
	eventBuffer   int
	onQueued      func(attempt int)
	logger        *slog.Logger
}

type Option func(settings) settings

func WithPollInterval(d time.Duration) Option {
	return func(s settings) settings {
		s.pollInterval = d
		return s
	}
}

func WithQueueInterval(d time.Duration) Option {
	return func(s settings) settings {
		s.queueInterval = d
		return s
	}
}

func WithMaxPollFailures(n int) Option {
	return func(s settings) settings {
		s.maxFailures = n
		return s
	}
}

// WithEventBuffer sets how many events are kept for a slow reader before
// the oldest ones are dropped.
func WithEventBuffer(n int) Option {
	return func(s settings) settings {
		if n > 0 {
			s.eventBuffer = n
		}
		return s
	}
}

// WithQueueHandler is called each time a random-match request is answered
// with "queued".
func WithQueueHandler(f func(attempt int)) Option {
	return func(s settings) settings {
		s.onQueued = f
		return s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s settings) settings {
		if logger != nil {
			s.logger = logger
		}
		return s
	}
}

// Match owns the session, the phase machine and the poller of the local
// player. Score is kept in the tracker across matches.
type Match struct {
	client     API
	session    *session.Session
	tracker    *score.Tracker
	machine    *game.Machine
	matchmaker *matchmaker.Matchmaker
	sync       *synchronizer.Synchronizer
	events     chan Event
	logger     *slog.Logger

	base   context.Context
	cancel context.CancelFunc
}

func New(client API, s *session.Session, tracker *score.Tracker, opts ...Option) *Match {
	cfg := settings{
		pollInterval:  synchronizer.DefaultInterval,
		queueInterval: matchmaker.DefaultRetryInterval,
		maxFailures:   synchronizer.DefaultMaxFailures,
		eventBuffer:   defaultEventBuffer,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	if tracker == nil {
		tracker = score.NewTracker()
	}
	base, cancel := context.WithCancel(context.Background())
	m := &Match{
		client:  client,
		session: s,
		tracker: tracker,
		events:  make(chan Event, cfg.eventBuffer),
		logger:  cfg.logger,
		base:    base,
		cancel:  cancel,
	}
	m.machine = game.NewMachine(
		game.WithPhaseHandler(func(old, new game.Phase) {
			m.logger.Debug("phase changed", "from", old, "to", new)
			m.emit(Event{Kind: EventPhase, Phase: new})
		}),
		game.WithSnapshotHandler(func(snap game.Snapshot) {
			m.emit(Event{Kind: EventSnapshot, Snapshot: snap})
		}),
		game.WithTerminalHandler(m.finish),
	)
	m.matchmaker = matchmaker.New(client,
		matchmaker.WithRetryInterval(cfg.queueInterval),
		matchmaker.WithQueueHandler(cfg.onQueued),
		matchmaker.WithLogger(cfg.logger),
	)
	m.sync = synchronizer.New(client, m.machine,
		synchronizer.WithInterval(cfg.pollInterval),
		synchronizer.WithMaxFailures(cfg.maxFailures),
		synchronizer.WithLogger(cfg.logger),
		synchronizer.WithErrorHandler(func(err error) {
			kind := EventError
			if errors.Is(err, synchronizer.ErrTooManyFailures) {
				kind = EventFatal
			}
			m.emit(Event{Kind: kind, Err: err})
		}),
	)
	return m
}

// Create opens room and waits in it for an opponent.
func (m *Match) Create(ctx context.Context, room string) error {
	if err := m.matchmaker.CreateRoom(ctx, m.session, room); err != nil {
		return err
	}
	return m.begin(true)
}

// Join takes the second seat of room.
func (m *Match) Join(ctx context.Context, room string) error {
	if err := m.matchmaker.JoinRoom(ctx, m.session, room); err != nil {
		return err
	}
	return m.begin(false)
}

// Random queues for an opponent until paired or ctx is done.
func (m *Match) Random(ctx context.Context) error {
	if err := m.matchmaker.RandomMatch(ctx, m.session); err != nil {
		return err
	}
	return m.begin(false)
}

func (m *Match) begin(awaitOpponent bool) error {
	room, seat := m.session.Room(), m.session.Seat()
	if err := m.machine.Begin(seat, awaitOpponent); err != nil {
		m.session.Reset()
		return err
	}
	if err := m.sync.Start(m.base, room, seat); err != nil {
		m.machine.Reset()
		m.session.Reset()
		return err
	}
	m.logger.Info("match started", "room", room, "seat", seat)
	return nil
}

// Act submits move for the local seat. Out of turn, or outside a running
// match, it fails with game.ErrNotYourTurn without contacting the server.
// A successful move is followed by an immediate state refresh.
func (m *Match) Act(ctx context.Context, move string) error {
	mv, err := game.ParseMove(move)
	if err != nil {
		return err
	}
	if err := m.machine.CanAct(); err != nil {
		return err
	}
	room, seat := m.session.Room(), m.session.Seat()
	if _, err := m.client.Action(ctx, room, string(seat), string(mv)); err != nil {
		return fmt.Errorf("%s: %w", mv, err)
	}
	m.logger.Debug("move sent", "room", room, "seat", seat, "move", mv)
	if err := m.sync.Refresh(ctx); err != nil {
		m.logger.Debug("refresh after move failed", "error", err)
	}
	return nil
}

// Reset returns to the menu: polling stops, the session forgets its room and
// seat and the machine goes back to idle.
func (m *Match) Reset() {
	m.sync.Stop()
	m.session.Reset()
	m.machine.Reset()
}

// Close resets the match and stops everything it started.
func (m *Match) Close() {
	m.Reset()
	m.cancel()
}

func (m *Match) finish(outcome game.Outcome, final game.Snapshot) {
	room := m.session.Room()
	if err := m.tracker.RecordOutcome(m.base, room, outcome); err != nil {
		m.logger.Warn("could not record outcome", "room", room, "error", err)
		m.emit(Event{Kind: EventError, Err: err})
	}
	if err := m.tracker.Verify(); err != nil {
		m.logger.Error("score history inconsistent", "error", err)
	}
	record := m.tracker.Record()
	entry, err := m.tracker.GetLatest()
	if err != nil {
		m.logger.Error("outcome missing from history", "room", room, "error", err)
	}
	m.logger.Info("match finished", "room", room, "outcome", outcome, "score", record.String(), "entry", entry.Index)
	m.emit(Event{Kind: EventOutcome, Outcome: outcome, Snapshot: final, Record: record})
}

// emit never blocks: when the buffer is full the oldest event is dropped.
func (m *Match) emit(e Event) {
	for {
		select {
		case m.events <- e:
			return
		default:
		}
		select {
		case <-m.events:
		default:
		}
	}
}

// Events delivers phase changes, snapshots, errors and outcomes.
func (m *Match) Events() <-chan Event {
	return m.events
}

func (m *Match) Phase() game.Phase {
	return m.machine.Phase()
}

func (m *Match) Snapshot() (game.Snapshot, bool) {
	return m.machine.Snapshot()
}

// CanAct reports (as an error) whether a move would be accepted locally.
func (m *Match) CanAct() error {
	return m.machine.CanAct()
}

func (m *Match) Outcome() (game.Outcome, bool) {
	return m.machine.Outcome()
}

func (m *Match) Session() *session.Session {
	return m.session
}

func (m *Match) Record() score.Record {
	return m.tracker.Record()
}

// Polling reports whether the state of the current match is being polled.
func (m *Match) Polling() bool {
	return m.sync.Running()
}

// Err returns the error that stopped polling, if any.
func (m *Match) Err() error {
	return m.sync.Err()
}

func (m *Match) Stats(ctx context.Context) (api.Stats, error) {
	return m.client.Stats(ctx)
}
