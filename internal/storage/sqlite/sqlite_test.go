package sqlite

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/types/users"
)

func setupTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stepClock makes created_at strictly increasing per insert.
func stepClock(s *SQLite, start time.Time) {
	current := start
	s.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestSQLite_CreateAndList(t *testing.T) {
	s := setupTestStore(t)
	stepClock(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.CreateNotification(ctx, types.Notification{
			Type:       types.NotificationPhotoAdded,
			Title:      title,
			Message:    "msg",
			FromUserID: "u1",
			ToUserID:   "u2",
			AlbumID:    "album-1",
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if _, err := s.CreateNotification(ctx, types.Notification{
		Type: types.NotificationVideoAdded, Title: "other", Message: "m", FromUserID: "u1", ToUserID: "u3",
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	list, err := s.ListNotifications(ctx, "u2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(list))
	}
	if list[0].Title != "third" || list[2].Title != "first" {
		t.Fatalf("Expected newest first, got %q ... %q", list[0].Title, list[2].Title)
	}
	for _, n := range list {
		if n.IsRead {
			t.Errorf("Expected new notification %s to be unread", n.ID)
		}
		if n.Type != types.NotificationPhotoAdded || n.AlbumID != "album-1" {
			t.Errorf("Unexpected record %+v", n)
		}
		if n.CreatedAt.IsZero() {
			t.Errorf("Expected created_at to be assigned")
		}
	}

	empty, err := s.ListNotifications(ctx, "nobody")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("Expected empty non-nil list, got %v", empty)
	}
}

func TestSQLite_MarkReadAndDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id1, _ := s.CreateNotification(ctx, types.Notification{Type: types.NotificationPhotoAdded, Title: "a", Message: "a", FromUserID: "u1", ToUserID: "u2"})
	id2, _ := s.CreateNotification(ctx, types.Notification{Type: types.NotificationPhotoAdded, Title: "b", Message: "b", FromUserID: "u1", ToUserID: "u2"})

	if err := s.MarkRead(ctx, id1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	n, err := s.GetNotification(ctx, id1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !n.IsRead {
		t.Fatal("Expected notification to be read")
	}

	if err := s.MarkAllRead(ctx, "u2"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	n, _ = s.GetNotification(ctx, id2)
	if !n.IsRead {
		t.Fatal("Expected all notifications to be read")
	}

	if err := s.DeleteNotification(ctx, id1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.GetNotification(ctx, id1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteNotification(ctx, id1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
	if err := s.MarkRead(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_DeleteReadBefore(t *testing.T) {
	s := setupTestStore(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stepClock(s, start)
	ctx := context.Background()

	oldRead, _ := s.CreateNotification(ctx, types.Notification{Type: types.NotificationPhotoAdded, Title: "old", Message: "m", FromUserID: "u1", ToUserID: "u2"})
	otherRead, _ := s.CreateNotification(ctx, types.Notification{Type: types.NotificationPhotoAdded, Title: "old3", Message: "m", FromUserID: "u1", ToUserID: "u3"})
	oldUnread, _ := s.CreateNotification(ctx, types.Notification{Type: types.NotificationPhotoAdded, Title: "old2", Message: "m", FromUserID: "u1", ToUserID: "u2"})
	s.now = func() time.Time { return start.Add(48 * time.Hour) }
	newRead, _ := s.CreateNotification(ctx, types.Notification{Type: types.NotificationPhotoAdded, Title: "new", Message: "m", FromUserID: "u1", ToUserID: "u2"})

	s.MarkRead(ctx, oldRead)
	s.MarkRead(ctx, newRead)
	s.MarkRead(ctx, otherRead)

	recipients, err := s.DeleteReadBefore(ctx, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	sort.Strings(recipients)
	if len(recipients) != 2 || recipients[0] != "u2" || recipients[1] != "u3" {
		t.Fatalf("Expected the deleted rows' recipients u2 and u3, got %v", recipients)
	}
	if _, err := s.GetNotification(ctx, oldUnread); err != nil {
		t.Fatalf("Expected unread notification to survive: %v", err)
	}
	if _, err := s.GetNotification(ctx, newRead); err != nil {
		t.Fatalf("Expected recent notification to survive: %v", err)
	}
}

func TestSQLite_GetUserByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.PutUser(ctx, users.Identity{ID: "u1", Email: "ann@example.com", DisplayName: "Ann"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	identity, err := s.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if identity.Name() != "Ann" {
		t.Fatalf("Expected Ann, got %s", identity.Name())
	}

	if _, err := s.GetUserByID(ctx, "u404"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
