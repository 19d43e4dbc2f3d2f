// Package game turns server snapshots into the local view of a blackjack
// match.
//
// # Core Types
//
// Snapshot: one read of the authoritative state (hands, values, turn, winner).
//
// Machine: the phase machine of the local seat. It gates moves to the seat's
// own turn and fires a single terminal event per match.
//
// # Ordering
//
// Every state request is stamped with Machine.Stamp before it is sent. Apply
// keeps only the newest response, so a slow response can never overwrite the
// state of a request issued after it.
package game
