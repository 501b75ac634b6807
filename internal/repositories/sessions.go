package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/musij/internal/payments"
	"github.com/desertthunder/musij/internal/shared"
)

// Migrate creates the checkout_sessions table if it does not exist.
func Migrate(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS checkout_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			plan_type TEXT NOT NULL,
			plan_name TEXT NOT NULL,
			amount INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create checkout_sessions table: %w", err)
	}

	return nil
}

// SQLiteSessionStore implements [payments.SessionStore] over SQLite.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore creates a [SQLiteSessionStore] with the given database connection.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Create inserts a new session, defaulting status to pending.
func (s *SQLiteSessionStore) Create(session *payments.Session) error {
	status := session.Status
	if status == "" {
		status = payments.StatusPending
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO checkout_sessions (id, user_id, plan_type, plan_name, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, session.ID, session.UserID, session.PlanType, session.PlanName, session.Amount, string(status), createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID.
func (s *SQLiteSessionStore) Get(id string) (*payments.Session, error) {
	query := `
		SELECT id, user_id, plan_type, plan_name, amount, status, created_at
		FROM checkout_sessions
		WHERE id = ?
	`

	var (
		session payments.Session
		status  string
	)

	err := s.db.QueryRow(query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.PlanType,
		&session.PlanName,
		&session.Amount,
		&status,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session.Status = payments.Status(status)
	return &session, nil
}

// ApplyEvent transitions a session per the state machine.
//
// The UPDATE is guarded on the pending status, so a session already in a
// terminal state is left untouched regardless of delivery order.
func (s *SQLiteSessionStore) ApplyEvent(id string, event payments.EventType) (bool, error) {
	var next payments.Status
	switch event {
	case payments.EventCheckoutCompleted:
		next = payments.StatusCompleted
	case payments.EventCheckoutExpired:
		next = payments.StatusExpired
	default:
		return false, nil
	}

	query := `
		UPDATE checkout_sessions
		SET status = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.Exec(query, string(next), id, string(payments.StatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	if affected == 0 {
		// Either the session does not exist or it is already terminal.
		if _, err := s.Get(id); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}
