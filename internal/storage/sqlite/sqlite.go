// Package sqlite implements the notification store on an embedded SQLite database.
//
// It backs single-node deployments and the tests of the packages layered on top
// of storage.Storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/types/users"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    from_user_id TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    album_id TEXT NOT NULL DEFAULT '',
    media_id TEXT NOT NULL DEFAULT '',
    is_read INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_to_user
    ON notifications(to_user_id, created_at);

CREATE INDEX IF NOT EXISTS idx_notifications_unread
    ON notifications(to_user_id, is_read) WHERE is_read = 0;
`

type SQLite struct {
	Db  *sql.DB
	now func() time.Time
}

// Open opens the database at path and applies the schema. Use ":memory:" for a
// private in-memory database.
func Open(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{Db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) CreateNotification(ctx context.Context, n types.Notification) (string, error) {
	id := uuid.New().String()
	_, err := s.Db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, title, message, from_user_id, to_user_id, album_id, media_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, string(n.Type), n.Title, n.Message, n.FromUserID, n.ToUserID, n.AlbumID, n.MediaID, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}

	return id, nil
}

const selectNotification = `
	SELECT id, type, title, message, from_user_id, to_user_id, album_id, media_id, is_read, created_at
	FROM notifications
`

func scanNotification(row interface{ Scan(...any) error }) (types.Notification, error) {
	var n types.Notification
	var kind string
	err := row.Scan(&n.ID, &kind, &n.Title, &n.Message, &n.FromUserID, &n.ToUserID,
		&n.AlbumID, &n.MediaID, &n.IsRead, &n.CreatedAt)
	n.Type = types.NotificationType(kind)
	return n, err
}

func (s *SQLite) GetNotification(ctx context.Context, id string) (types.Notification, error) {
	n, err := scanNotification(s.Db.QueryRowContext(ctx, selectNotification+`WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return n, storage.ErrNotFound
	}
	if err != nil {
		return n, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

func (s *SQLite) ListNotifications(ctx context.Context, userID string) ([]types.Notification, error) {
	rows, err := s.Db.QueryContext(ctx,
		selectNotification+`WHERE to_user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []types.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (s *SQLite) MarkRead(ctx context.Context, id string) error {
	res, err := s.Db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return expectRow(res)
}

func (s *SQLite) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.Db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE to_user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

func (s *SQLite) DeleteNotification(ctx context.Context, id string) error {
	res, err := s.Db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	return expectRow(res)
}

func (s *SQLite) DeleteReadBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.Db.QueryContext(ctx,
		`DELETE FROM notifications WHERE is_read = 1 AND created_at < ? RETURNING to_user_id`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to delete read notifications: %w", err)
	}
	defer rows.Close()

	var recipients []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan deleted notification: %w", err)
		}
		recipients = append(recipients, userID)
	}
	return recipients, rows.Err()
}

func (s *SQLite) GetUserByID(ctx context.Context, id string) (users.Identity, error) {
	var identity users.Identity
	err := s.Db.QueryRowContext(ctx, `SELECT id, email, display_name FROM users WHERE id = ?`, id).
		Scan(&identity.ID, &identity.Email, &identity.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return identity, storage.ErrNotFound
	}
	if err != nil {
		return identity, fmt.Errorf("failed to get user: %w", err)
	}

	return identity, nil
}

// PutUser inserts or replaces a directory entry.
func (s *SQLite) PutUser(ctx context.Context, identity users.Identity) error {
	_, err := s.Db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, display_name = excluded.display_name`,
		identity.ID, identity.Email, identity.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
