package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/princekumarofficial/album-notify/internal/config"
	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/types/users"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	slog.Info("Connected to Postgres database")

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(128) PRIMARY KEY,
			email VARCHAR(255) NOT NULL DEFAULT '',
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			type VARCHAR(50) NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			from_user_id VARCHAR(128) NOT NULL,
			to_user_id VARCHAR(128) NOT NULL,
			album_id VARCHAR(128) NOT NULL DEFAULT '',
			media_id VARCHAR(255) NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_to_user
			ON notifications(to_user_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread
			ON notifications(to_user_id) WHERE is_read = FALSE;`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateNotification(ctx context.Context, n types.Notification) (string, error) {
	id := uuid.New().String()
	query := `
	INSERT INTO notifications (id, type, title, message, from_user_id, to_user_id, album_id, media_id, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)
	`

	_, err := p.Db.ExecContext(ctx, query, id, string(n.Type), n.Title, n.Message,
		n.FromUserID, n.ToUserID, n.AlbumID, n.MediaID, time.Now().UTC())
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

func (p *Postgres) GetNotification(ctx context.Context, id string) (types.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Notification{}, storage.ErrNotFound
	}

	n, err := scanNotification(p.Db.QueryRowContext(ctx, selectNotification+`WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return n, storage.ErrNotFound
	}
	if err != nil {
		return n, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

func (p *Postgres) ListNotifications(ctx context.Context, userID string) ([]types.Notification, error) {
	rows, err := p.Db.QueryContext(ctx, selectNotification+`WHERE to_user_id = $1 ORDER BY created_at DESC`, userID)
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

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return notifications, nil
}

func (p *Postgres) MarkRead(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrNotFound
	}

	res, err := p.Db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return expectRow(res)
}

func (p *Postgres) MarkAllRead(ctx context.Context, userID string) error {
	_, err := p.Db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE to_user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

func (p *Postgres) DeleteNotification(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrNotFound
	}

	res, err := p.Db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	return expectRow(res)
}

func (p *Postgres) DeleteReadBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := p.Db.QueryContext(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1 RETURNING to_user_id`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to delete read notifications: %w", err)
	}
	defer rows.Close()

	return scanRecipients(rows)
}

func scanRecipients(rows *sql.Rows) ([]string, error) {
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

func (p *Postgres) GetUserByID(ctx context.Context, id string) (users.Identity, error) {
	var identity users.Identity
	query := `
	SELECT id, email, display_name FROM users WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, id).Scan(&identity.ID, &identity.Email, &identity.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return identity, storage.ErrNotFound
	}
	if err != nil {
		return identity, fmt.Errorf("failed to get user: %w", err)
	}

	return identity, nil
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
