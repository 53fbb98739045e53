package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomStore marks live game PINs in Redis so an ops dashboard (or another
// instance) can see which rooms exist. Writes are best effort; the room
// manager's in-process map stays authoritative.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func (s *RoomStore) MarkActive(ctx context.Context, pin string) {
	_ = s.client.Set(ctx, s.key(pin), "1", s.ttl).Err()
}

func (s *RoomStore) Clear(ctx context.Context, pin string) {
	_ = s.client.Del(ctx, s.key(pin)).Err()
}

func (s *RoomStore) key(pin string) string {
	return "game:room:" + pin
}
