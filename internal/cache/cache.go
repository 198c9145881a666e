package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/types/users"
)

// CacheService wraps storage with Redis caching and a per-user change feed
type CacheService struct {
	storage     storage.Storage
	redis       *redis.Client
	identityTTL time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client, identityTTL time.Duration) *CacheService {
	return &CacheService{
		storage:     storage,
		redis:       redisClient,
		identityTTL: identityTTL,
	}
}

// Cache key patterns
const (
	UserIdentityKey      = "user:identity:%s"      // user:identity:userID
	NotificationsChannel = "notifications:user:%s" // notifications:user:userID
	ConfirmedMediaKey    = "media:confirmed:%s"    // media:confirmed:objectKey
)

// ResolveIdentity returns the cached display identity of a user or fetches it from the directory
func (c *CacheService) ResolveIdentity(ctx context.Context, userID string) (users.Identity, error) {
	key := fmt.Sprintf(UserIdentityKey, userID)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var identity users.Identity
		if err := json.Unmarshal([]byte(cached), &identity); err == nil {
			return identity, nil
		}
	}

	// Cache miss - fetch from database
	identity, err := c.storage.GetUserByID(ctx, userID)
	if err != nil {
		return identity, fmt.Errorf("resolve identity %s: %w", userID, err)
	}

	data, _ := json.Marshal(identity)
	c.redis.Set(ctx, key, data, c.identityTTL)

	return identity, nil
}

// ClaimConfirmation records objectKey as confirmed and reports whether this
// call was the first to do so within ttl
func (c *CacheService) ClaimConfirmation(ctx context.Context, objectKey string, ttl time.Duration) (bool, error) {
	claimed, err := c.redis.SetNX(ctx, fmt.Sprintf(ConfirmedMediaKey, objectKey), time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim confirmation of %s: %w", objectKey, err)
	}
	return claimed, nil
}

// Subscribe streams the notification list of userID: once immediately, then
// after every change. A slow reader only ever sees the latest list. The channel
// is closed when ctx is done.
func (c *CacheService) Subscribe(ctx context.Context, userID string) (<-chan []types.Notification, error) {
	pubsub := c.redis.Subscribe(ctx, fmt.Sprintf(NotificationsChannel, userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to notifications of %s: %w", userID, err)
	}

	out := make(chan []types.Notification, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		changes := pubsub.Channel()
		c.pushSnapshot(ctx, userID, out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				c.pushSnapshot(ctx, userID, out)
			}
		}
	}()

	return out, nil
}

func (c *CacheService) pushSnapshot(ctx context.Context, userID string, out chan []types.Notification) {
	list, err := c.storage.ListNotifications(ctx, userID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Failed to load notifications for subscriber",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return
	}

	// Replace an unread snapshot so the reader always gets the newest one
	select {
	case <-out:
	default:
	}
	out <- list
}

// publishChange tells subscribers of userID that their list changed
func (c *CacheService) publishChange(ctx context.Context, userID string) {
	if err := c.redis.Publish(ctx, fmt.Sprintf(NotificationsChannel, userID), "changed").Err(); err != nil {
		slog.Warn("Failed to publish notification change",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}

// Methods to pass through to storage (implement storage.Storage interface)
func (c *CacheService) CreateNotification(ctx context.Context, n types.Notification) (string, error) {
	id, err := c.storage.CreateNotification(ctx, n)
	if err != nil {
		return "", err
	}

	c.publishChange(ctx, n.ToUserID)
	return id, nil
}

func (c *CacheService) GetNotification(ctx context.Context, id string) (types.Notification, error) {
	return c.storage.GetNotification(ctx, id)
}

func (c *CacheService) ListNotifications(ctx context.Context, userID string) ([]types.Notification, error) {
	return c.storage.ListNotifications(ctx, userID)
}

func (c *CacheService) MarkRead(ctx context.Context, id string) error {
	n, err := c.storage.GetNotification(ctx, id)
	if err != nil {
		return err
	}

	if err := c.storage.MarkRead(ctx, id); err != nil {
		return err
	}

	c.publishChange(ctx, n.ToUserID)
	return nil
}

func (c *CacheService) MarkAllRead(ctx context.Context, userID string) error {
	if err := c.storage.MarkAllRead(ctx, userID); err != nil {
		return err
	}

	c.publishChange(ctx, userID)
	return nil
}

func (c *CacheService) DeleteNotification(ctx context.Context, id string) error {
	n, err := c.storage.GetNotification(ctx, id)
	if err != nil {
		return err
	}

	if err := c.storage.DeleteNotification(ctx, id); err != nil {
		return err
	}

	c.publishChange(ctx, n.ToUserID)
	return nil
}

// DeleteReadBefore purges old read records and publishes one change per affected user
func (c *CacheService) DeleteReadBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	recipients, err := c.storage.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	published := make(map[string]struct{}, len(recipients))
	for _, userID := range recipients {
		if _, done := published[userID]; done {
			continue
		}
		published[userID] = struct{}{}
		c.publishChange(ctx, userID)
	}
	return recipients, nil
}

func (c *CacheService) GetUserByID(ctx context.Context, id string) (users.Identity, error) {
	return c.ResolveIdentity(ctx, id)
}
