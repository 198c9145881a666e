// Package livefeed projects a user's notification list from the store's live
// subscription and ends the user's pending upload batches with the session.
package livefeed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/princekumarofficial/album-notify/internal/events"
	"github.com/princekumarofficial/album-notify/internal/types"
)

// Subscriber streams full notification lists for one user until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan []types.Notification, error)
}

// BatchDiscarder drops a user's pending batches without flushing them.
type BatchDiscarder interface {
	DiscardActor(actorID string) int
}

// Consumer holds the latest sorted notification list and unread count of the
// session user and republishes it on every update.
type Consumer struct {
	subscriber Subscriber
	batches    BatchDiscarder
	publisher  events.Publisher
	logger     *slog.Logger

	// lifecycle serialises Start and Stop
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu     sync.RWMutex
	userID string
	feed   types.FeedSnapshot
}

// NewConsumer creates a consumer. batches and publisher may be nil.
func NewConsumer(subscriber Subscriber, batches BatchDiscarder, publisher events.Publisher, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		subscriber: subscriber,
		batches:    batches,
		publisher:  publisher,
		logger:     logger,
		feed:       emptyFeed(),
	}
}

// Start subscribes to userID's notifications. A running subscription, possibly
// for another user, is cancelled first.
func (c *Consumer) Start(ctx context.Context, userID string) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopSubscription()

	subCtx, cancel := context.WithCancel(ctx)
	updates, err := c.subscriber.Subscribe(subCtx, userID)
	if err != nil {
		cancel()
		return fmt.Errorf("start live feed for %s: %w", userID, err)
	}

	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	c.mu.Lock()
	c.userID = userID
	c.feed = emptyFeed()
	c.mu.Unlock()

	go c.consume(subCtx, userID, updates, done)

	c.logger.Info("Live feed started", slog.String("user_id", userID))
	return nil
}

// Stop cancels the subscription, clears the feed and discards the session
// user's pending batches. Those batches never produce notifications.
func (c *Consumer) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopSubscription()

	c.mu.Lock()
	userID := c.userID
	c.userID = ""
	c.feed = emptyFeed()
	c.mu.Unlock()

	if userID == "" {
		return
	}

	dropped := 0
	if c.batches != nil {
		dropped = c.batches.DiscardActor(userID)
	}
	c.logger.Info("Live feed stopped",
		slog.String("user_id", userID),
		slog.Int("discarded_batches", dropped))
}

// Snapshot returns the current list, newest first, and the unread count.
func (c *Consumer) Snapshot() types.FeedSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return types.FeedSnapshot{
		Notifications: append([]types.Notification{}, c.feed.Notifications...),
		UnreadCount:   c.feed.UnreadCount,
	}
}

// UserID returns the user the consumer is subscribed for, or "" when stopped.
func (c *Consumer) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// stopSubscription must be called with lifecycle held.
func (c *Consumer) stopSubscription() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
}

func (c *Consumer) consume(ctx context.Context, userID string, updates <-chan []types.Notification, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case list, ok := <-updates:
			if !ok {
				return
			}
			c.apply(userID, list)
		}
	}
}

func (c *Consumer) apply(userID string, list []types.Notification) {
	feed := Project(list)

	c.mu.Lock()
	if c.userID != userID {
		c.mu.Unlock()
		return
	}
	c.feed = feed
	c.mu.Unlock()

	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishFeed(userID, feed); err != nil {
		c.logger.Warn("Failed to publish live feed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}

// Project sorts a copy of list by creation time, newest first, and counts the
// unread records.
func Project(list []types.Notification) types.FeedSnapshot {
	sorted := append([]types.Notification{}, list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	unread := 0
	for _, n := range sorted {
		if !n.IsRead {
			unread++
		}
	}

	return types.FeedSnapshot{Notifications: sorted, UnreadCount: unread}
}

func emptyFeed() types.FeedSnapshot {
	return types.FeedSnapshot{Notifications: []types.Notification{}}
}
