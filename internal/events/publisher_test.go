package events

import (
	"testing"

	"github.com/princekumarofficial/album-notify/internal/types"
)

type recordingHub struct {
	connected map[string]bool
	sent      map[string][]*types.Event
}

func (h *recordingHub) BroadcastToUser(userID string, event *types.Event) {
	h.sent[userID] = append(h.sent[userID], event)
}

func (h *recordingHub) IsUserConnected(userID string) bool {
	return h.connected[userID]
}

func TestPublishFeed(t *testing.T) {
	hub := &recordingHub{connected: map[string]bool{"u2": true}, sent: map[string][]*types.Event{}}
	p := NewEventPublisher(hub)

	feed := types.FeedSnapshot{Notifications: []types.Notification{{ID: "n1"}}, UnreadCount: 1}
	if err := p.PublishFeed("u2", feed); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := p.PublishFeed("u3", feed); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(hub.sent["u2"]) != 1 {
		t.Fatalf("Expected one event for u2, got %d", len(hub.sent["u2"]))
	}
	event := hub.sent["u2"][0]
	if event.Type != types.EventNotificationsUpdated {
		t.Fatalf("Expected %s, got %s", types.EventNotificationsUpdated, event.Type)
	}
	if got := event.Data.(types.FeedSnapshot); got.UnreadCount != 1 {
		t.Fatalf("Expected unread count 1, got %d", got.UnreadCount)
	}
	if len(hub.sent["u3"]) != 0 {
		t.Fatal("Expected nothing sent to a disconnected user")
	}
}
