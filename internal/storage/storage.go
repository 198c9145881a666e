package storage

import (
	"context"
	"errors"
	"time"

	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/types/users"
)

// ErrNotFound is returned when a notification or user does not exist
var ErrNotFound = errors.New("not found")

// Storage is the durable notification store plus the user directory it shares a database with
type Storage interface {
	CreateNotification(ctx context.Context, n types.Notification) (string, error)
	GetNotification(ctx context.Context, id string) (types.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]types.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id string) error
	// DeleteReadBefore returns the recipient of every deleted record, one entry per row
	DeleteReadBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	GetUserByID(ctx context.Context, id string) (users.Identity, error)
}
