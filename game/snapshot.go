package game

import (
	"strings"

	"github.com/sortalost/blackjack/api"
	"github.com/sortalost/blackjack/card"
)

// Snapshot is one read of the server-authoritative state. A new snapshot
// always replaces the previous one; nothing is merged.
type Snapshot struct {
	Status        Status
	Turn          Seat
	YourHand      []card.Card
	YourValue     int
	OpponentHand  []card.Card
	OpponentCount int
	OpponentValue *int
	// Winner is a Seat value, Draw, or empty while the hand is running.
	Winner       string
	YourName     string
	OpponentName string
}

// NewSnapshot converts the body of /state.
func NewSnapshot(st api.State) Snapshot {
	s := Snapshot{
		Status:        ParseStatus(st.Status),
		Turn:          Seat(strings.ToLower(strings.TrimSpace(st.Turn))),
		YourHand:      card.FromStrings(st.YourHand),
		YourValue:     st.YourValue,
		OpponentHand:  card.FromStrings(st.OpponentHand),
		OpponentCount: st.OpponentCount,
		YourName:      st.YourName,
		OpponentName:  st.OpponentName,
	}
	if st.OpponentValue != nil {
		v := *st.OpponentValue
		s.OpponentValue = &v
	}
	if st.Winner != nil {
		s.Winner = strings.ToLower(strings.TrimSpace(*st.Winner))
	}
	if s.OpponentCount == 0 {
		s.OpponentCount = len(s.OpponentHand)
	}
	return s
}

// OpponentCards returns the revealed opponent hand, or face-down
// placeholders while it is hidden.
func (s Snapshot) OpponentCards() []card.Card {
	if len(s.OpponentHand) > 0 {
		return s.OpponentHand
	}
	return card.Hidden(s.OpponentCount)
}

// TurnOf reports whether the snapshot says it is seat's turn.
func (s Snapshot) TurnOf(seat Seat) bool {
	return s.Status == StatusPlaying && seat.Valid() && s.Turn == seat
}
