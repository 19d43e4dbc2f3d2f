// Package synchronizer keeps a game.Machine in step with the server by
// polling the room state on a fixed cadence.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sortalost/blackjack/api"
	"github.com/sortalost/blackjack/game"
)

var (
	ErrAlreadyRunning  = errors.New("synchronizer already running")
	ErrNotRunning      = errors.New("synchronizer not running")
	ErrTransient       = errors.New("state fetch failed")
	ErrTooManyFailures = errors.New("too many consecutive state fetch failures")
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxFailures = 5
)

// StateFetcher reads the room state. *api.Client implements it.
type StateFetcher interface {
	State(ctx context.Context, room, player string) (api.State, error)
}

// Synchronizer polls the state of one match at a time.
type Synchronizer struct {
	fetcher     StateFetcher
	machine     *game.Machine
	interval    time.Duration
	maxFailures int
	onError     func(error)
	logger      *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	room     string
	seat     game.Seat
	failures int
	err      error
}

type Option func(*Synchronizer)

// WithInterval sets the time between two scheduled polls.
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMaxFailures sets how many consecutive failed fetches stop the loop.
func WithMaxFailures(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.maxFailures = n
		}
	}
}

// WithErrorHandler registers f to receive recoverable fetch errors
// (wrapping ErrTransient) and the final ErrTooManyFailures.
func WithErrorHandler(f func(error)) Option {
	return func(s *Synchronizer) {
		s.onError = f
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(fetcher StateFetcher, machine *game.Machine, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fetcher:     fetcher,
		machine:     machine,
		interval:    DefaultInterval,
		maxFailures: DefaultMaxFailures,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start polls the state of room as seat until the machine leaves the
// pollable phases (it finished or was reset), Stop is called, ctx is done
// or too many fetches fail in a row. The first poll is sent immediately.
// The machine must have been started with Begin.
//
// Handlers registered on the machine or with WithErrorHandler run on the
// polling goroutine and must not call Stop.
func (s *Synchronizer) Start(ctx context.Context, room string, seat game.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		select {
		case <-s.done:
		default:
			return ErrAlreadyRunning
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.ctx = runCtx
	s.cancel = cancel
	s.done = done
	s.room = room
	s.seat = seat
	s.failures = 0
	s.err = nil
	go s.run(runCtx, cancel, done, room, seat)
	return nil
}

// Stop cancels the loop and any request in flight and waits for the loop to
// exit. It is safe to call at any time.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the current loop has exited.
func (s *Synchronizer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

// Err returns the fatal error that stopped the last loop, if any.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Running reports whether a loop is polling.
func (s *Synchronizer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Refresh fetches the state once, outside the regular cadence. The response
// is applied only if no newer request has been applied in the meantime.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	runCtx, room, seat := s.ctx, s.room, s.seat
	running := s.done != nil
	s.mu.Unlock()
	if !running || runCtx.Err() != nil {
		return ErrNotRunning
	}
	ctx, cancel := mergeCancel(ctx, runCtx)
	defer cancel()
	return s.poll(ctx, room, seat)
}

func (s *Synchronizer) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, room string, seat game.Seat) {
	defer close(done)
	defer cancel()
	s.logger.Debug("polling started", "room", room, "seat", seat, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		err := s.poll(ctx, room, seat)
		if ctx.Err() != nil {
			s.logger.Debug("polling cancelled", "room", room)
			return
		}
		if errors.Is(err, ErrTooManyFailures) {
			return
		}
		if phase := s.machine.Phase(); !phase.Pollable() {
			s.logger.Debug("polling stopped", "room", room, "phase", phase)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll sends one stamped request and applies its response.
func (s *Synchronizer) poll(ctx context.Context, room string, seat game.Seat) error {
	seq := s.machine.Stamp()
	st, err := s.fetcher.State(ctx, room, string(seat))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
	if !s.machine.Apply(seq, game.NewSnapshot(st)) {
		s.logger.Debug("snapshot discarded", "room", room, "seq", seq)
	}
	return nil
}

func (s *Synchronizer) fail(cause error) error {
	s.mu.Lock()
	s.failures++
	failures := s.failures
	fatal := failures >= s.maxFailures
	var err error
	if fatal {
		err = fmt.Errorf("%w (%d): %w", ErrTooManyFailures, failures, cause)
		s.err = err
	} else {
		err = fmt.Errorf("%w (%d/%d): %w", ErrTransient, failures, s.maxFailures, cause)
	}
	cancel := s.cancel
	s.mu.Unlock()

	if fatal {
		s.logger.Error("polling stopped", "error", err)
		if cancel != nil {
			cancel()
		}
	} else {
		s.logger.Warn("state fetch failed", "error", err)
	}
	if s.onError != nil {
		s.onError(err)
	}
	return err
}

// mergeCancel returns a context that is done when either parent is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
