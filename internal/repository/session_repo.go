package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lifeline/internal/database"
	"lifeline/internal/models"
	"lifeline/internal/security"
)

// SessionRepository stores browser sessions. Bearer tokens are sealed at rest.
type SessionRepository struct {
	db  *database.DB
	box *security.TokenBox
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB, box *security.TokenBox) *SessionRepository {
	return &SessionRepository{db: db, box: box}
}

const insertSessionQuery = `
	INSERT INTO sessions (id, user_id, user_email, token_sealed, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

// CreateSession persists token, user id and email in a single row
func (r *SessionRepository) CreateSession(ctx context.Context, s *models.Session) error {
	return r.insert(ctx, r.db, s)
}

// ReplaceSession deletes oldID and inserts s in one transaction
func (r *SessionRepository) ReplaceSession(ctx context.Context, oldID string, s *models.Session) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", oldID); err != nil {
			return fmt.Errorf("failed to delete previous session: %w", err)
		}
		return r.insert(ctx, tx, s)
	})
}

func (r *SessionRepository) insert(ctx context.Context, q database.DBTX, s *models.Session) error {
	sealed, err := r.box.Seal(s.Token)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, insertSessionQuery,
		s.ID, s.UserID, s.UserEmail, sealed, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. It returns nil, nil when no row exists.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, user_email, token_sealed, created_at, expires_at
		FROM sessions
		WHERE id = ?
	`
	s, err := r.scan(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListActiveSessions returns sessions that have not expired at now
func (r *SessionRepository) ListActiveSessions(ctx context.Context, now time.Time) ([]models.Session, error) {
	query := `
		SELECT id, user_id, user_email, token_sealed, created_at, expires_at
		FROM sessions
		WHERE expires_at > ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session from the database
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions expired at now
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) scan(row scanner) (*models.Session, error) {
	var s models.Session
	var sealed string
	if err := row.Scan(&s.ID, &s.UserID, &s.UserEmail, &sealed, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return nil, err
	}
	token, err := r.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to open token of session %s: %w", s.ID, err)
	}
	s.Token = token
	return &s, nil
}
