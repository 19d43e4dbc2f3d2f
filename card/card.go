package card

import (
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"
)

// Suit constants (0-3), NoSuit when the code carries no recognizable suit.
const (
	Club    = 0 // ♣ (black)
	Diamond = 1 // ♦ (red)
	Heart   = 2 // ♥ (red)
	Spade   = 3 // ♠ (black)
	NoSuit  = 4
)

// FaceDown is the display character for cards the player cannot see.
const (
	FaceDown = "▓"
)

// Card is the short code the server uses for a playing card, for example
// "AH", "10S" or "K♦". The client never scores a card: it only splits the
// code to print it.
type Card string

// Rank returns the rank part of the code ("A", "10", "K", ...).
// If the last rune is not a suit, the whole code is returned.
func (c Card) Rank() string {
	if c.Suit() == NoSuit {
		return string(c)
	}
	_, size := utf8.DecodeLastRuneInString(string(c))
	return string(c)[:len(c)-size]
}

// Suit returns the suit encoded by the last rune of the code.
// Letters (C, D, H, S in any case) and the four suit symbols are accepted.
func (c Card) Suit() uint8 {
	r, _ := utf8.DecodeLastRuneInString(string(c))
	switch r {
	case 'C', 'c', '♣':
		return Club
	case 'D', 'd', '♦':
		return Diamond
	case 'H', 'h', '♥':
		return Heart
	case 'S', 's', '♠':
		return Spade
	}
	return NoSuit
}

// String returns a human-readable representation of the Card using suit symbols
// (♣, ♦, ♥, ♠). Red suits are colored, unknown codes are printed as they are.
func (c Card) String() string {
	if strings.TrimSpace(string(c)) == "" {
		return FaceDown
	}
	var suit string
	switch c.Suit() {
	case Club:
		suit = "♣"
	case Diamond:
		suit = pterm.LightRed("♦")
	case Heart:
		suit = pterm.LightRed("♥")
	case Spade:
		suit = "♠"
	default:
		return string(c)
	}
	rank := c.Rank()
	if rank == "T" {
		rank = "10"
	}
	return rank + suit
}

// Hidden returns n face-down cards, used when the server only reports how
// many cards the opponent holds.
func Hidden(n int) []Card {
	if n <= 0 {
		return nil
	}
	return make([]Card, n)
}

// Render prints a hand as "A♥ - 10♠ - ▓".
func Render(cards []Card) string {
	if len(cards) == 0 {
		return "-"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " - ")
}

// FromStrings converts the wire representation of a hand.
func FromStrings(codes []string) []Card {
	if codes == nil {
		return nil
	}
	cards := make([]Card, len(codes))
	for i, code := range codes {
		cards[i] = Card(strings.TrimSpace(code))
	}
	return cards
}
