package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/infra/memory"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Room state stays in a local in-memory store so broadcasts remain in-process; Redis only
// carries a liveness marker per room, refreshed on activity and expiring on its own if the
// process goes away without cleaning up.
type RoomStore struct {
	*memory.RoomStore
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRoomStore(client *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *RoomStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoomStore{
		RoomStore: memory.NewRoomStore(),
		client:    client,
		ttl:       ttl,
		log:       logger.WithField("component", "redis-rooms"),
	}
}

func (s *RoomStore) Put(room *app.Room) {
	s.RoomStore.Put(room)
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), roomKey(room.ID()), "1", s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("room", room.ID()).Warn("set room marker")
	}
}

func (s *RoomStore) Delete(roomID string) {
	s.RoomStore.Delete(roomID)
	if err := s.client.Del(context.Background(), roomKey(roomID)).Err(); err != nil {
		s.log.WithError(err).WithField("room", roomID).Warn("delete room marker")
	}
}

// Touch extends the liveness marker of an existing room.
func (s *RoomStore) Touch(roomID string) {
	if s.ttl <= 0 {
		return
	}
	if err := s.client.Expire(context.Background(), roomKey(roomID), s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("room", roomID).Debug("refresh room marker")
	}
}

// Live reports whether the liveness marker of roomID is present.
func (s *RoomStore) Live(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(roomID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func roomKey(roomID string) string {
	return "quiz:room:" + roomID
}
