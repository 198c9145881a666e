package cache

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/album-notify/internal/utils/response"
)

// CacheStats represents cache performance statistics
type CacheStats struct {
	RedisConnected bool     `json:"redis_connected"`
	IdentityKeys   []string `json:"identity_keys_sample"`
	KeyCount       int      `json:"total_keys"`
}

// GetCacheStats returns cache statistics for the identity cache
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{RedisConnected: true}

		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		keys, _ := scanKeys(ctx, redisClient, "user:identity:*", 10)
		stats.IdentityKeys = keys

		if size, err := redisClient.DBSize(ctx).Result(); err == nil {
			stats.KeyCount = int(size)
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache endpoint for administrative purposes
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var pattern string
		switch r.URL.Query().Get("type") {
		case "all":
			pattern = "*"
		default:
			pattern = "user:identity:*"
		}

		keys, err := scanKeys(ctx, redisClient, pattern, 0)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		var deleted int64
		if len(keys) > 0 {
			deleted, err = redisClient.Del(ctx, keys...).Result()
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
		}

		result := map[string]interface{}{
			"pattern":      pattern,
			"deleted_keys": deleted,
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", result))
	}
}

// scanKeys collects keys matching pattern, at most limit of them when limit > 0
func scanKeys(ctx context.Context, redisClient *redis.Client, pattern string, limit int) ([]string, error) {
	var keys []string
	iter := redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, iter.Err()
}
