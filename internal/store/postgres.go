package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, COALESCE(password_hash, ''), is_email_verified, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, COALESCE(password_hash, ''), is_email_verified, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, displayName, email, passwordHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (display_name, email, password_hash)
		VALUES ($1, LOWER($2), $3)
		RETURNING id, display_name, email, COALESCE(password_hash, ''), is_email_verified, created_at
	`, displayName, email, passwordHash).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// InsertNote inserts a note and returns the server-assigned row. The id and
// created_at come back from the database, never from the caller.
func (s *PostgresStore) InsertNote(ctx context.Context, content, createdBy string) (Note, error) {
	var note Note
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (content, created_by)
		VALUES ($1, $2)
		RETURNING id, content, created_at, created_by
	`, content, createdBy).Scan(&note.ID, &note.Content, &note.CreatedAt, &note.CreatedBy)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// ListNotes returns one page of notes ordered newest-first. page is 1-based.
// A non-blank query adds a case-insensitive substring filter on content.
func (s *PostgresStore) ListNotes(ctx context.Context, page, pageSize int, query string) ([]Note, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, created_at, created_by
		FROM notes
		WHERE ($3 = '' OR content ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, pageSize, offset, query)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	items := make([]Note, 0)
	for rows.Next() {
		var item Note
		if err := rows.Scan(&item.ID, &item.Content, &item.CreatedAt, &item.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, noteID string) (Note, error) {
	var note Note
	err := s.db.QueryRowContext(ctx, `
		SELECT id, content, created_at, created_by
		FROM notes
		WHERE id = $1
	`, noteID).Scan(&note.ID, &note.Content, &note.CreatedAt, &note.CreatedBy)
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (s *PostgresStore) UpdateNoteContent(ctx context.Context, noteID, content string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notes SET content=$2 WHERE id=$1`, noteID, content)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteNote removes a note and returns the deleted row so the caller can
// clean up any images its content still references.
func (s *PostgresStore) DeleteNote(ctx context.Context, noteID string) (Note, error) {
	var note Note
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM notes
		WHERE id = $1
		RETURNING id, content, created_at, created_by
	`, noteID).Scan(&note.ID, &note.Content, &note.CreatedAt, &note.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, err
	}
	if err != nil {
		return Note{}, fmt.Errorf("delete note: %w", err)
	}
	return note, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.display_name, u.email
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
