package game

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func finished(winner string) Snapshot {
	return Snapshot{Status: StatusFinished, Winner: winner}
}

func playing(turn Seat) Snapshot {
	return Snapshot{Status: StatusPlaying, Turn: turn}
}

func TestNewMachine_InitialState(t *testing.T) {
	m := NewMachine()
	if m.Phase() != PhaseIdle {
		t.Errorf("expected initial phase to be %s, got %s", PhaseIdle, m.Phase())
	}
	if _, ok := m.Snapshot(); ok {
		t.Error("expected no snapshot")
	}
	if !errors.Is(m.CanAct(), ErrNotYourTurn) {
		t.Error("expected idle machine to refuse moves")
	}
}

func TestMachine_CreatorWaitsForOpponent(t *testing.T) {
	var changes [][2]Phase
	m := NewMachine(WithPhaseHandler(func(old, new Phase) {
		changes = append(changes, [2]Phase{old, new})
	}))
	if err := m.Begin(SeatP1, true); err != nil {
		t.Fatal(err)
	}
	if m.Phase() != PhaseWaiting {
		t.Fatalf("expected %s, got %s", PhaseWaiting, m.Phase())
	}
	m.Apply(m.Stamp(), Snapshot{Status: StatusWaiting})
	if m.Phase() != PhaseWaiting {
		t.Fatalf("expected %s, got %s", PhaseWaiting, m.Phase())
	}
	m.Apply(m.Stamp(), playing(SeatP1))
	if m.Phase() != PhaseInProgress {
		t.Fatalf("expected %s, got %s", PhaseInProgress, m.Phase())
	}
	expected := [][2]Phase{{PhaseIdle, PhaseWaiting}, {PhaseWaiting, PhaseInProgress}}
	if len(changes) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, changes)
	}
	for i := range expected {
		if changes[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, changes)
		}
	}
}

func TestMachine_JoinerStartsInProgress(t *testing.T) {
	m := NewMachine()
	if err := m.Begin(SeatP2, false); err != nil {
		t.Fatal(err)
	}
	if m.Phase() != PhaseInProgress {
		t.Fatalf("expected %s, got %s", PhaseInProgress, m.Phase())
	}
	if err := m.Begin(SeatP2, false); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestMachine_BeginInvalidSeat(t *testing.T) {
	m := NewMachine()
	if err := m.Begin(SeatNone, false); !errors.Is(err, ErrInvalidSeat) {
		t.Fatalf("expected ErrInvalidSeat, got %v", err)
	}
	if m.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", m.Phase())
	}
}

func TestMachine_IdleIgnoresSnapshots(t *testing.T) {
	m := NewMachine()
	if m.Apply(m.Stamp(), playing(SeatP1)) {
		t.Fatal("idle machine applied a snapshot")
	}
}

func TestMachine_TurnGate(t *testing.T) {
	m := NewMachine()
	if err := m.Begin(SeatP2, false); err != nil {
		t.Fatal(err)
	}
	if err := m.CanAct(); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn before any snapshot, got %v", err)
	}
	m.Apply(m.Stamp(), playing(SeatP1))
	if err := m.CanAct(); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn on opponent's turn, got %v", err)
	}
	m.Apply(m.Stamp(), playing(SeatP2))
	if err := m.CanAct(); err != nil {
		t.Fatalf("expected to be allowed to act, got %v", err)
	}
	m.Apply(m.Stamp(), Snapshot{Status: StatusFinished, Turn: SeatP2, Winner: "p2"})
	if err := m.CanAct(); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn once finished, got %v", err)
	}
}

func TestMachine_TerminalFiresOnce(t *testing.T) {
	fired := 0
	m := NewMachine(WithTerminalHandler(func(o Outcome, s Snapshot) {
		fired++
	}))
	if err := m.Begin(SeatP1, false); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		m.Apply(m.Stamp(), finished("p1"))
	}
	if fired != 1 {
		t.Fatalf("expected terminal handler to fire once, fired %d times", fired)
	}
	if m.Phase() != PhaseFinished {
		t.Fatalf("expected %s, got %s", PhaseFinished, m.Phase())
	}
}

func TestMachine_OutcomePerSeat(t *testing.T) {
	cases := []struct {
		seat     Seat
		winner   string
		expected Outcome
	}{
		{SeatP1, "p1", OutcomeWin},
		{SeatP2, "p1", OutcomeLoss},
		{SeatP1, "draw", OutcomeDraw},
		{SeatP2, "draw", OutcomeDraw},
		{SeatP2, "p2", OutcomeWin},
	}
	for _, c := range cases {
		var got Outcome
		m := NewMachine(WithTerminalHandler(func(o Outcome, s Snapshot) {
			got = o
		}))
		if err := m.Begin(c.seat, false); err != nil {
			t.Fatal(err)
		}
		m.Apply(m.Stamp(), finished(c.winner))
		if got != c.expected {
			t.Errorf("seat %s, winner %s: expected %s, got %s", c.seat, c.winner, c.expected, got)
		}
		if o, ok := m.Outcome(); !ok || o != c.expected {
			t.Errorf("seat %s: Outcome() returned %s, %v", c.seat, o, ok)
		}
	}
}

func TestMachine_StaleResponseDiscarded(t *testing.T) {
	m := NewMachine()
	if err := m.Begin(SeatP1, false); err != nil {
		t.Fatal(err)
	}
	first := m.Stamp()
	second := m.Stamp()
	newer := Snapshot{Status: StatusPlaying, Turn: SeatP2, YourValue: 19}
	older := Snapshot{Status: StatusPlaying, Turn: SeatP1, YourValue: 12}
	if !m.Apply(second, newer) {
		t.Fatal("newest response was discarded")
	}
	if m.Apply(first, older) {
		t.Fatal("stale response was applied")
	}
	s, _ := m.Snapshot()
	if s.YourValue != 19 || s.Turn != SeatP2 {
		t.Fatalf("state reverted to stale response: %+v", s)
	}
}

func TestMachine_ResetClearsLatch(t *testing.T) {
	fired := 0
	m := NewMachine(WithTerminalHandler(func(o Outcome, s Snapshot) {
		fired++
	}))
	if err := m.Begin(SeatP1, false); err != nil {
		t.Fatal(err)
	}
	inFlight := m.Stamp()
	m.Apply(m.Stamp(), finished("p2"))
	m.Reset()
	if m.Phase() != PhaseIdle || m.Seat() != SeatNone {
		t.Fatalf("expected idle and unseated, got %s %q", m.Phase(), m.Seat())
	}
	if _, ok := m.Outcome(); ok {
		t.Fatal("expected outcome to be cleared")
	}
	if err := m.Begin(SeatP2, false); err != nil {
		t.Fatal(err)
	}
	if m.Apply(inFlight, finished("p2")) {
		t.Fatal("response issued before reset was applied")
	}
	m.Apply(m.Stamp(), finished("p2"))
	if fired != 2 {
		t.Fatalf("expected one terminal event per match, got %d", fired)
	}
}

func TestMachine_SlowHandlerDoesNotReorderDeliveries(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []Status
	first := true
	m := NewMachine(WithSnapshotHandler(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap.Status)
		block := first
		first = false
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
	}))
	if err := m.Begin(SeatP1, true); err != nil {
		t.Fatal(err)
	}
	older, newer := m.Stamp(), m.Stamp()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Apply(older, playing(SeatP1))
	}()
	<-entered
	go func() {
		defer wg.Done()
		m.Apply(newer, Snapshot{Status: StatusWaiting})
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	snap, _ := m.Snapshot()
	if snap.Status != StatusWaiting {
		t.Fatalf("expected the newer snapshot to be kept, got %s", snap.Status)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != snap.Status {
		t.Fatalf("handler saw %v, last delivery must match state %s", seen, snap.Status)
	}
}

func TestMachine_ConcurrentApplyDeliversLatestLast(t *testing.T) {
	for round := 0; round < 50; round++ {
		var mu sync.Mutex
		last := -1
		var phases []Phase
		m := NewMachine(
			WithSnapshotHandler(func(snap Snapshot) {
				mu.Lock()
				last = snap.YourValue
				mu.Unlock()
			}),
			WithPhaseHandler(func(old, new Phase) {
				mu.Lock()
				phases = append(phases, new)
				mu.Unlock()
			}),
		)
		if err := m.Begin(SeatP1, true); err != nil {
			t.Fatal(err)
		}
		seqs := make([]uint64, 8)
		for i := range seqs {
			seqs[i] = m.Stamp()
		}
		var wg sync.WaitGroup
		for i, seq := range seqs {
			wg.Add(1)
			go func(value int, seq uint64) {
				defer wg.Done()
				m.Apply(seq, Snapshot{Status: StatusPlaying, Turn: SeatP1, YourValue: value})
			}(i, seq)
		}
		wg.Wait()

		snap, ok := m.Snapshot()
		if !ok {
			t.Fatal("no snapshot applied")
		}
		mu.Lock()
		if last != snap.YourValue {
			t.Fatalf("round %d: last delivered value %d, machine holds %d", round, last, snap.YourValue)
		}
		if len(phases) != 2 || phases[0] != PhaseWaiting || phases[1] != PhaseInProgress {
			t.Fatalf("round %d: phase deliveries %v", round, phases)
		}
		mu.Unlock()
	}
}
