// Package api is the transport to the blackjack room server. It is a thin,
// stateless JSON-over-HTTP client: one method per endpoint plus the generic
// Do request used by all of them.
//
// # Endpoints
//
// CreateRoom, JoinRoom and RandomMatch place a player in a room.
// Action submits a move and State reads the authoritative game state.
// Stats is advisory and only used for display.
//
// # Errors
//
// The client never retries on its own. A failed call returns either a
// *NetworkError (the request did not complete or the body could not be
// decoded) or an *Error (the server answered with an {"error": "..."}
// payload). Callers decide whether to retry.
package api
