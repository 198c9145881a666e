package events

import (
	"github.com/princekumarofficial/album-notify/internal/types"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishFeed(userID string, feed types.FeedSnapshot) error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishFeed pushes the latest notification list of a user to their live connection
func (p *EventPublisher) PublishFeed(userID string, feed types.FeedSnapshot) error {
	// Only send if the user is connected
	if !p.hub.IsUserConnected(userID) {
		return nil
	}

	p.hub.BroadcastToUser(userID, types.NewEvent(types.EventNotificationsUpdated, feed))
	return nil
}
