package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/match"
)

var moves = []string{"Hit", "Stand"}

var (
	// errLeft is returned by play when the player leaves before the end.
	errLeft    = errors.New("left the match")
	errNoMatch = errors.New("no match in progress")
)

// play drives one match until it ends, polling stops for good or ctx is
// cancelled. Events are pumped on their own goroutine so the prompt loop
// never misses the outcome.
func play(ctx context.Context, m *match.Match, logger *slog.Logger, prompt prompter) (game.Outcome, error) {
	if m.Phase() == game.PhaseIdle {
		return "", errNoMatch
	}
	g, ctx := errgroup.WithContext(ctx)
	updates := make(chan match.Event, 16)
	done := make(chan struct{})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-done:
				return nil
			case e := <-m.Events():
				if e.Kind == match.EventError {
					logger.Debug("state refresh failed", "error", e.Err)
					continue
				}
				select {
				case updates <- e:
				case <-ctx.Done():
					return nil
				case <-done:
					return nil
				}
			}
		}
	})

	var outcome game.Outcome
	g.Go(func() error {
		defer close(done)
		o, err := turns(ctx, m, updates, prompt)
		outcome = o
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	return outcome, nil
}

func turns(ctx context.Context, m *match.Match, updates <-chan match.Event, prompt prompter) (game.Outcome, error) {
	s := m.Session()
	var last string
	show := func(snap game.Snapshot) {
		view := renderTable(snap, s.Seat(), s.Name(), m.Record())
		if view == last {
			return
		}
		last = view
		pterm.Print(view)
	}

	for {
		if m.CanAct() == nil {
			if snap, ok := m.Snapshot(); ok {
				show(snap)
			}
			selected, err := prompt.Select("Your move", moves)
			if err != nil {
				return "", err
			}
			if err := m.Act(ctx, strings.ToLower(selected)); err != nil {
				pterm.Error.Println(describe(err))
			}
			continue
		}

		select {
		case <-ctx.Done():
			return "", errLeft
		case e := <-updates:
			switch e.Kind {
			case match.EventPhase:
				if e.Phase == game.PhaseWaiting {
					pterm.Info.Printfln("Room %s is open, waiting for an opponent ...", pterm.LightCyan(s.Room()))
				}
			case match.EventSnapshot:
				if e.Snapshot.Status != game.StatusFinished {
					show(e.Snapshot)
				}
			case match.EventOutcome:
				pterm.Print(renderTable(e.Snapshot, s.Seat(), s.Name(), e.Record, resultPanel(e.Outcome, e.Record)))
				return e.Outcome, nil
			case match.EventFatal:
				return "", e.Err
			}
		}
	}
}
