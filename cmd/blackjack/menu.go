package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"

	"github.com/sortalost/blackjack/api"
	"github.com/sortalost/blackjack/config"
	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/match"
	"github.com/sortalost/blackjack/matchmaker"
	"github.com/sortalost/blackjack/profile"
	"github.com/sortalost/blackjack/score"
	"github.com/sortalost/blackjack/session"
	"github.com/sortalost/blackjack/synchronizer"
)

const (
	optCreate = "Create room"
	optJoin   = "Join room"
	optRandom = "Random match"
	optStats  = "Server stats"
	optRecent = "Recent games"
	optQuit   = "Quit"

	optBack = "Back to menu"

	recentLimit = 10
)

var menuOptions = []string{optCreate, optJoin, optRandom, optStats, optRecent, optQuit}

type app struct {
	match   *match.Match
	store   *profile.Store
	logger  *slog.Logger
	prompt  prompter
	spinner atomic.Pointer[pterm.SpinnerPrinter]
}

func newApp(cfg config.Config, sess *session.Session, store *profile.Store, logger *slog.Logger, prompt prompter) *app {
	var trackerOpts []score.Option
	if store != nil {
		trackerOpts = append(trackerOpts, score.WithJournal(store))
	}
	client := api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)
	a := &app{store: store, logger: logger, prompt: prompt}
	a.match = match.New(client, sess, score.NewTracker(trackerOpts...),
		match.WithPollInterval(cfg.PollInterval),
		match.WithQueueInterval(cfg.QueueInterval),
		match.WithMaxPollFailures(cfg.MaxPollFailures),
		match.WithQueueHandler(a.queued),
		match.WithLogger(logger),
	)
	return a
}

// queued is the random-match queue handler.
func (a *app) queued(attempt int) {
	if sp := a.spinner.Load(); sp != nil {
		sp.UpdateText(fmt.Sprintf("Still looking for an opponent (attempt %d, Ctrl-C to cancel) ...", attempt))
	}
}

func (a *app) menu(ctx context.Context) error {
	for {
		pterm.Println()
		pterm.Info.Printfln("Playing as %s, score %s", pterm.LightCyan(a.match.Session().Name()), a.match.Record())
		selected, err := a.prompt.Select("What do you want to do?", menuOptions)
		if err != nil {
			return err
		}
		switch selected {
		case optCreate, optJoin:
			room, err := a.prompt.Input("Room name", "")
			if err != nil {
				return fmt.Errorf("read room name: %w", err)
			}
			drain(a.match)
			if selected == optCreate {
				err = a.match.Create(ctx, room)
			} else {
				err = a.match.Join(ctx, room)
			}
			if err != nil {
				pterm.Error.Println(describe(err))
				continue
			}
		case optRandom:
			drain(a.match)
			matched, err := a.random(ctx)
			if err != nil {
				pterm.Error.Println(describe(err))
				continue
			}
			if !matched {
				continue
			}
		case optStats:
			a.stats(ctx)
			continue
		case optRecent:
			a.recent(ctx)
			continue
		case optQuit:
			return nil
		}

		quit := a.playOne(ctx)
		a.match.Reset()
		if quit {
			return nil
		}
	}
}

// random queues until paired. It reports false when the player gave up.
func (a *app) random(ctx context.Context) (bool, error) {
	qctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	spinner, _ := pterm.DefaultSpinner.Start("Looking for an opponent (Ctrl-C to cancel) ...")
	a.spinner.Store(spinner)
	defer a.spinner.Store(nil)

	if err := a.match.Random(qctx); err != nil {
		if errors.Is(err, context.Canceled) {
			spinner.Warning("Stopped looking for an opponent")
			return false, nil
		}
		spinner.Fail()
		return false, err
	}
	spinner.Success(pterm.Sprintf("Matched in room %s", pterm.LightCyan(a.match.Session().Room())))
	return true, nil
}

// playOne plays the current match and asks what to do next. It reports
// whether the player wants to quit.
func (a *app) playOne(ctx context.Context) bool {
	pctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	outcome, err := play(pctx, a.match, a.logger, a.prompt)
	stop()
	switch {
	case errors.Is(err, errNoMatch):
		return false
	case errors.Is(err, errLeft):
		pterm.Warning.Println("You left the match.")
		return false
	case err != nil:
		pterm.Error.Println(describe(err))
	default:
		a.logger.Debug("match over", "outcome", outcome)
	}
	next, err := a.prompt.Select("Next", []string{optBack, optQuit})
	if err != nil {
		a.logger.Error("could not read the next step", "error", err)
		return true
	}
	return next == optQuit
}

func (a *app) stats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st, err := a.match.Stats(ctx)
	if err != nil {
		pterm.Error.Println(describe(err))
		return
	}
	pterm.Info.Printfln("Rooms: %d | In game: %d | In queue: %d", st.Total, st.InGame, st.InQueue)
}

func (a *app) recent(ctx context.Context) {
	if a.store == nil {
		pterm.Info.Println("No profile store, games are not remembered.")
		return
	}
	outcomes, err := a.store.RecentOutcomes(ctx, recentLimit)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	if len(outcomes) == 0 {
		pterm.Info.Println("No games played yet.")
		return
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(recentTable(outcomes)).Render(); err != nil {
		a.logger.Warn("could not render table", "error", err)
	}
}

func recentTable(outcomes []profile.Outcome) pterm.TableData {
	data := pterm.TableData{{"#", "Room", "Result", "Played"}}
	for _, o := range outcomes {
		data = append(data, []string{
			strconv.Itoa(o.Index + 1),
			o.Room,
			string(o.Outcome),
			o.PlayedAt.Format(time.DateTime),
		})
	}
	return data
}

// drain drops events left over from the previous match.
func drain(m *match.Match) {
	for {
		select {
		case <-m.Events():
		default:
			return
		}
	}
}

// describe turns errors from the match into something a player can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidName):
		return "Names cannot be empty."
	case errors.Is(err, session.ErrAlreadyBound):
		return "You are already in a room."
	case errors.Is(err, matchmaker.ErrRoomTaken):
		return "That room already exists, pick another name."
	case errors.Is(err, matchmaker.ErrRoomNotFound):
		return "No room with that name."
	case errors.Is(err, matchmaker.ErrRoomFull):
		return "That room is full."
	case errors.Is(err, game.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, synchronizer.ErrTooManyFailures):
		return "Lost contact with the server, the match was abandoned."
	case api.IsNetwork(err):
		return "Could not reach the server: " + err.Error()
	}
	if apiErr, ok := api.AsError(err); ok {
		return "Server said: " + apiErr.Message
	}
	return err.Error()
}
