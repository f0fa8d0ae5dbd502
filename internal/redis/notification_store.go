package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"reunion/internal/events"
)

const notificationKeyPrefix = "notif:user:"

// redisNotificationStore keeps each user's notifications in a capped list, newest first.
type redisNotificationStore struct {
	client  *redis.Client
	maxKept int64
}

// NewRedisNotificationStore creates a store keeping at most maxKept entries per user.
func NewRedisNotificationStore(client *redis.Client, maxKept int64) events.NotificationStore {
	if maxKept <= 0 {
		maxKept = 100
	}
	return &redisNotificationStore{client: client, maxKept: maxKept}
}

func notificationKey(userID uint) string {
	return fmt.Sprintf("%s%d", notificationKeyPrefix, userID)
}

func (s *redisNotificationStore) Push(ctx context.Context, userID uint, n events.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := notificationKey(userID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, s.maxKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push notification for user %d: %w", userID, err)
	}
	return nil
}

// List returns up to limit notifications, newest first. A non-positive
// limit returns everything kept.
func (s *redisNotificationStore) List(ctx context.Context, userID uint, limit int64) ([]events.Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	raw, err := s.client.LRange(ctx, notificationKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}

	out := make([]events.Notification, 0, len(raw))
	for _, item := range raw {
		var n events.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
