// Package payments tracks checkout sessions and applies webhook-driven state
// transitions.
//
// # Session State Machine
//
// A session starts PENDING and moves to COMPLETED or EXPIRED exactly once.
// Both are terminal: a duplicate or late event for a terminal session is a
// no-op, so out-of-order webhook deliveries can never move status backward.
//
// # Stores
//
// [MemoryStore] is the default, process-lifetime store. The
// [SessionStore] interface is deliberately small (Create, Get, ApplyEvent)
// so a durable backing store can substitute without touching callers; the
// repositories package provides a SQLite implementation behind the same
// interface.
//
// # Webhook Verification
//
// [Verifier] authenticates provider callbacks before any state is touched.
// Verification runs over the raw request bytes: signature schemes sign exact
// bytes, and any parse-and-reserialize in between breaks them. An event that
// fails verification is rejected wholesale and must never reach a store.
package payments
