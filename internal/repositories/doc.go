// package repositories provides the SQLite-backed checkout session store.
//
// The store implements the same payments.SessionStore interface as the
// in-memory store, so the serve command can swap it in when a database path
// is configured without touching any handler code. Status transitions use a
// guarded UPDATE so the terminal-state invariant holds under concurrent
// webhook deliveries.
package repositories
