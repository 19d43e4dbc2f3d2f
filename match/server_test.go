package match

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/sortalost/blackjack/api"
)

// roomServer is a small in-memory stand-in for the room server: both players
// stand once and the configured winner is declared.
type roomServer struct {
	mu      sync.Mutex
	rooms   map[string]*room
	pending *pending
	winner  string
	actions int
	polls   map[string]int
	auto    int
}

type room struct {
	names  map[string]string
	hands  map[string][]string
	status string
	turn   string
	stood  map[string]bool
	winner string
}

type pending struct {
	name string
	room string
}

func newRoomServer(winner string) (*roomServer, *httptest.Server) {
	rs := &roomServer{
		rooms:  map[string]*room{},
		winner: winner,
		polls:  map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/create_room", rs.createRoom)
	mux.HandleFunc("/join_room", rs.joinRoom)
	mux.HandleFunc("/random_match", rs.randomMatch)
	mux.HandleFunc("/action", rs.action)
	mux.HandleFunc("/state", rs.state)
	mux.HandleFunc("/stats", rs.stats)
	return rs, httptest.NewServer(mux)
}

func newRoom(p1 string) *room {
	return &room{
		names:  map[string]string{"p1": p1},
		hands:  map[string][]string{"p1": {"10H", "7C"}, "p2": {"9S", "8D"}},
		status: "waiting",
		stood:  map[string]bool{},
	}
}

func (r *room) seat(p2 string) {
	r.names["p2"] = p2
	r.status = "playing"
	r.turn = "p1"
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fail(w http.ResponseWriter, status int, msg string) {
	reply(w, status, map[string]string{"error": msg})
}

func (rs *roomServer) createRoom(w http.ResponseWriter, r *http.Request) {
	var req api.RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.rooms[req.Room]; ok {
		fail(w, http.StatusBadRequest, "Room already exists")
		return
	}
	rs.rooms[req.Room] = newRoom(req.Name)
	reply(w, http.StatusOK, api.Message{Message: "Room created"})
}

func (rs *roomServer) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req api.RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rm, ok := rs.rooms[req.Room]
	if !ok {
		fail(w, http.StatusNotFound, "Room not found")
		return
	}
	if _, taken := rm.names["p2"]; taken {
		fail(w, http.StatusBadRequest, "Room is full")
		return
	}
	rm.seat(req.Name)
	reply(w, http.StatusOK, api.Message{Message: "Joined"})
}

func (rs *roomServer) randomMatch(w http.ResponseWriter, r *http.Request) {
	var req api.QueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	switch {
	case rs.pending == nil:
		rs.pending = &pending{name: req.Name}
		reply(w, http.StatusOK, api.Pairing{Status: api.StatusQueued})
	case rs.pending.name == req.Name && rs.pending.room == "":
		reply(w, http.StatusOK, api.Pairing{Status: api.StatusQueued})
	case rs.pending.name == req.Name:
		reply(w, http.StatusOK, api.Pairing{Room: rs.pending.room, Player: "p1"})
		rs.pending = nil
	default:
		rs.auto++
		name := fmt.Sprintf("auto-%d", rs.auto)
		rm := newRoom(rs.pending.name)
		rm.seat(req.Name)
		rs.rooms[name] = rm
		rs.pending.room = name
		reply(w, http.StatusOK, api.Pairing{Room: name, Player: "p2"})
	}
}

func (rs *roomServer) action(w http.ResponseWriter, r *http.Request) {
	var req api.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.actions++
	rm, ok := rs.rooms[req.Room]
	if !ok {
		fail(w, http.StatusNotFound, "Room not found")
		return
	}
	if rm.status != "playing" || rm.turn != req.Player {
		fail(w, http.StatusBadRequest, "Not your turn")
		return
	}
	switch req.Move {
	case "hit":
		rm.hands[req.Player] = append(rm.hands[req.Player], "2C")
	case "stand":
		rm.stood[req.Player] = true
		if rm.stood["p1"] && rm.stood["p2"] {
			rm.status = "finished"
			rm.winner = rs.winner
		} else {
			rm.turn = other(req.Player)
		}
	default:
		fail(w, http.StatusBadRequest, "Invalid move")
		return
	}
	reply(w, http.StatusOK, api.Message{Message: "ok"})
}

func (rs *roomServer) state(w http.ResponseWriter, r *http.Request) {
	roomName, player := r.URL.Query().Get("room"), r.URL.Query().Get("player")
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.polls[roomName+"/"+player]++
	rm, ok := rs.rooms[roomName]
	if !ok {
		fail(w, http.StatusNotFound, "Room not found")
		return
	}
	opp := other(player)
	st := api.State{
		Status:       rm.status,
		Turn:         rm.turn,
		YourHand:     rm.hands[player],
		YourValue:    17,
		YourName:     rm.names[player],
		OpponentName: rm.names[opp],
	}
	if rm.status == "finished" {
		v := 17
		st.OpponentHand = rm.hands[opp]
		st.OpponentValue = &v
		winner := rm.winner
		st.Winner = &winner
	} else {
		st.OpponentCount = len(rm.hands[opp])
	}
	reply(w, http.StatusOK, st)
}

func (rs *roomServer) stats(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	inQueue := 0
	if rs.pending != nil && rs.pending.room == "" {
		inQueue = 1
	}
	reply(w, http.StatusOK, api.Stats{Total: len(rs.rooms), InGame: len(rs.rooms), InQueue: inQueue})
}

func (rs *roomServer) actionCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.actions
}

func (rs *roomServer) pollCount(roomName, player string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.polls[roomName+"/"+player]
}

func other(player string) string {
	if player == "p1" {
		return "p2"
	}
	return "p1"
}
