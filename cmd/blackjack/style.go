package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/sortalost/blackjack/card"
	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/score"
)

func handBox(title string, cards []card.Card, value string, main bool) string {
	hpadding := 4
	if main {
		hpadding = 10
	}
	pbox := pterm.DefaultBox.WithLeftPadding(hpadding).WithRightPadding(hpadding).WithTopPadding(1).WithBottomPadding(1)
	hand := pterm.BgGreen.Sprintf(" %s ", card.Render(cards))
	return pbox.WithTitle(title).WithTitleTopLeft().Sprintf("%s\nValue: %s\n", hand, value)
}

// opponentValue is only known once the server reveals it.
func opponentValue(snap game.Snapshot) string {
	if snap.OpponentValue == nil {
		return "?"
	}
	return strconv.Itoa(*snap.OpponentValue)
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func turnText(snap game.Snapshot, seat game.Seat) string {
	switch {
	case snap.Status == game.StatusFinished:
		return "Game over"
	case snap.Status == game.StatusWaiting:
		return "Waiting for an opponent to join ..."
	case snap.TurnOf(seat):
		return pterm.LightGreen("Your turn")
	case snap.Status == game.StatusPlaying:
		return pterm.Sprintf("Waiting for %s ...", pterm.LightCyan(displayName(snap.OpponentName, "the opponent")))
	default:
		return "Waiting for the server ..."
	}
}

func statusPanel(snap game.Snapshot, seat game.Seat, record score.Record) pterm.Panel {
	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4)
	text := pterm.Sprintfln("%s\nScore: %s", turnText(snap, seat), record)
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|" + string(seat) + "|")).WithTitleTopCenter().Sprint(text)}
}

func tablePanels(snap game.Snapshot, seat game.Seat, name string, record score.Record) [][]pterm.Panel {
	opponent := pterm.Panel{Data: handBox(
		displayName(snap.OpponentName, "Opponent"),
		snap.OpponentCards(),
		opponentValue(snap),
		false,
	)}
	mine := pterm.Panel{Data: handBox(
		displayName(snap.YourName, name),
		snap.YourHand,
		strconv.Itoa(snap.YourValue),
		true,
	)}
	return [][]pterm.Panel{
		{opponent},
		{mine, statusPanel(snap, seat, record)},
	}
}

func renderTable(snap game.Snapshot, seat game.Seat, name string, record score.Record, extra ...pterm.Panel) string {
	panels := tablePanels(snap, seat, name, record)
	if len(extra) > 0 {
		panels = append(panels, extra)
	}
	out, err := pterm.DefaultPanel.WithPanels(panels).Srender()
	if err != nil {
		return fmt.Sprintf("%s | %s\n", card.Render(snap.YourHand), card.Render(snap.OpponentCards()))
	}
	return out
}

func outcomeText(o game.Outcome) string {
	switch o {
	case game.OutcomeWin:
		return pterm.LightGreen("You won!")
	case game.OutcomeLoss:
		return pterm.LightRed("You lost.")
	case game.OutcomeDraw:
		return pterm.LightYellow("It's a draw.")
	default:
		return string(o)
	}
}

func resultPanel(o game.Outcome, record score.Record) pterm.Panel {
	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	text := pterm.Sprintfln("%s\nScore: %s (wins/games)", outcomeText(o), record)
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|RESULT|")).WithTitleTopCenter().Sprint(text)}
}
