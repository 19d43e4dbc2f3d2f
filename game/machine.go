package game

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidMove    = errors.New("invalid move")
	ErrInvalidSeat    = errors.New("invalid seat")
	ErrAlreadyStarted = errors.New("match already started")
)

// Machine interprets snapshots into phases for one local seat.
//
// Phases move idle → waiting_for_opponent → in_progress → finished.
// The finished phase is terminal: the terminal handler fires on the first
// finished snapshot and every later snapshot is ignored until Reset.
//
// Handlers are called one at a time and never with an outdated state: when
// two changes race, the older one is not delivered. Handlers must not call
// Begin, Apply or Reset.
type Machine struct {
	mu       sync.Mutex
	phase    Phase
	seat     Seat
	snapshot Snapshot
	hasSnap  bool
	// issued is the last sequence number handed out by Stamp; lastSeq is the
	// newest one applied (or the floor set by Begin/Reset).
	issued  uint64
	lastSeq uint64
	latched bool
	outcome Outcome
	// gen counts accepted state changes; a delivery is dropped once a newer
	// change exists.
	gen uint64

	// dispatch serializes handler calls. delivered is the last phase the
	// phase handler was told about and is guarded by dispatch.
	dispatch  sync.Mutex
	delivered Phase

	// Callbacks for state transitions, called without mu held
	onPhaseChange func(old, new Phase)
	onSnapshot    func(snap Snapshot)
	onTerminal    func(outcome Outcome, final Snapshot)
}

type Option func(*Machine)

// WithPhaseHandler registers f to be called on every phase change.
func WithPhaseHandler(f func(old, new Phase)) Option {
	return func(m *Machine) {
		m.onPhaseChange = f
	}
}

// WithSnapshotHandler registers f to be called with every applied snapshot.
func WithSnapshotHandler(f func(snap Snapshot)) Option {
	return func(m *Machine) {
		m.onSnapshot = f
	}
}

// WithTerminalHandler registers f to be called once per match, on the
// transition into PhaseFinished.
func WithTerminalHandler(f func(outcome Outcome, final Snapshot)) Option {
	return func(m *Machine) {
		m.onTerminal = f
	}
}

// NewMachine creates an idle machine.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{phase: PhaseIdle, delivered: PhaseIdle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a match for seat. The room creator waits for an opponent;
// players that joined or were paired start directly in progress.
func (m *Machine) Begin(seat Seat, awaitOpponent bool) error {
	if !seat.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeat, seat)
	}
	m.mu.Lock()
	if m.phase != PhaseIdle {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.seat = seat
	m.lastSeq = m.issued
	next := PhaseInProgress
	if awaitOpponent {
		next = PhaseWaiting
	}
	m.phase = next
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.dispatch.Lock()
	defer m.dispatch.Unlock()
	m.deliver(gen, nil, next)
	return nil
}

// Stamp returns the sequence number for a state request about to be sent.
// Responses must be applied with the number of the request that produced them.
func (m *Machine) Stamp() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return m.issued
}

// Apply feeds the response of request seq to the machine. It returns false
// when the snapshot was discarded: the machine is idle or finished, or a
// newer request has already been applied.
func (m *Machine) Apply(seq uint64, snap Snapshot) bool {
	m.mu.Lock()
	if m.phase == PhaseIdle || m.phase == PhaseFinished || seq <= m.lastSeq {
		m.mu.Unlock()
		return false
	}
	m.lastSeq = seq
	m.snapshot = snap
	m.hasSnap = true

	m.gen++
	gen := m.gen
	fire := false
	switch snap.Status {
	case StatusPlaying:
		if m.phase == PhaseWaiting {
			m.phase = PhaseInProgress
		}
	case StatusFinished:
		m.phase = PhaseFinished
		if !m.latched {
			m.latched = true
			m.outcome = Resolve(snap.Winner, m.seat)
			fire = true
		}
	}
	next := m.phase
	outcome := m.outcome
	m.mu.Unlock()

	m.dispatch.Lock()
	defer m.dispatch.Unlock()
	m.deliver(gen, &snap, next)
	// The terminal handler fires even if a Reset raced ahead: the match
	// did finish and must be counted once.
	if fire && m.onTerminal != nil {
		m.onTerminal(outcome, snap)
	}
	return true
}

// CanAct returns nil when the local seat may submit a move: the match is in
// progress and the last snapshot gives the turn to this seat.
func (m *Machine) CanAct() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseInProgress {
		return fmt.Errorf("%w: match is %s", ErrNotYourTurn, m.phase)
	}
	if !m.hasSnap {
		return fmt.Errorf("%w: no state received yet", ErrNotYourTurn)
	}
	if !m.snapshot.TurnOf(m.seat) {
		return ErrNotYourTurn
	}
	return nil
}

// Reset returns the machine to idle and clears the terminal latch. Responses
// to requests stamped before the reset are discarded.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.phase = PhaseIdle
	m.seat = SeatNone
	m.snapshot = Snapshot{}
	m.hasSnap = false
	m.lastSeq = m.issued
	m.latched = false
	m.outcome = ""
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.dispatch.Lock()
	defer m.dispatch.Unlock()
	m.deliver(gen, nil, PhaseIdle)
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) Seat() Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seat
}

// Snapshot returns the last applied snapshot, if any.
func (m *Machine) Snapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, m.hasSnap
}

// Outcome returns the result of the match once it is finished.
func (m *Machine) Outcome() (Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome, m.latched
}

// deliver reports the change numbered gen to the handlers, unless a newer
// change was made meanwhile. The caller holds dispatch.
func (m *Machine) deliver(gen uint64, snap *Snapshot, phase Phase) {
	m.mu.Lock()
	current := m.gen == gen
	m.mu.Unlock()
	if !current {
		return
	}
	if snap != nil && m.onSnapshot != nil {
		m.onSnapshot(*snap)
	}
	if old := m.delivered; old != phase {
		m.delivered = phase
		if m.onPhaseChange != nil {
			m.onPhaseChange(old, phase)
		}
	}
}
