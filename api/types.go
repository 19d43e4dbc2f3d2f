package api

// Message is the body of successful room and action requests.
type Message struct {
	Message string `json:"message"`
}

// RoomRequest is sent to /create_room and /join_room.
type RoomRequest struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// QueueRequest is sent to /random_match.
type QueueRequest struct {
	Name string `json:"name"`
}

// ActionRequest is sent to /action.
type ActionRequest struct {
	Room   string `json:"room"`
	Player string `json:"player"`
	Move   string `json:"move"`
}

// StatusQueued is returned by /random_match while no opponent is available.
const StatusQueued = "queued"

// Pairing is the answer of /random_match: either a room and a seat, or
// Status == StatusQueued.
type Pairing struct {
	Room   string `json:"room,omitempty"`
	Player string `json:"player,omitempty"`
	Status string `json:"status,omitempty"`
}

// Queued reports whether the server kept the player in the queue.
func (p Pairing) Queued() bool {
	return p.Status == StatusQueued || (p.Room == "" && p.Player == "")
}

// State is the body of /state. The opponent's cards are only revealed once
// the hand is finished; before that the server sends OpponentCount.
type State struct {
	Status        string   `json:"status"`
	Turn          string   `json:"turn"`
	YourHand      []string `json:"your_hand"`
	YourValue     int      `json:"your_value"`
	OpponentHand  []string `json:"opponent_hand,omitempty"`
	OpponentCount int      `json:"opponent_count,omitempty"`
	OpponentValue *int     `json:"opponent_value,omitempty"`
	Winner        *string  `json:"winner"`
	YourName      string   `json:"your_name"`
	OpponentName  string   `json:"opponent_name"`
}

// Stats is the body of /stats.
type Stats struct {
	Total   int `json:"total"`
	InGame  int `json:"in_game"`
	InQueue int `json:"in_queue"`
}
