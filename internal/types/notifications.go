package types

import "time"

// NotificationType tags a notification record with the action that produced it
type NotificationType string

const (
	NotificationPhotoAdded   NotificationType = "photo-added"
	NotificationVideoAdded   NotificationType = "video-added"
	NotificationMemberJoined NotificationType = "member-joined"
	NotificationAlbumUpdated NotificationType = "album-updated"
)

// MediaKind is the kind of media item an upload produced
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Valid reports whether k is a known media kind
func (k MediaKind) Valid() bool {
	return k == MediaPhoto || k == MediaVideo
}

// Notification is a persisted per-user notification record
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	FromUserID string           `json:"from_user_id"`
	ToUserID   string           `json:"to_user_id"`
	AlbumID    string           `json:"album_id,omitempty"`
	MediaID    string           `json:"media_id,omitempty"`
	IsRead     bool             `json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
}

// FeedSnapshot is the projected state of one user's notification list
type FeedSnapshot struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
