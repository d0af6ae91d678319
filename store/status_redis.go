package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// sessionTTL keeps finished sessions readable long enough for the UI to pick
// up the final state.
const sessionTTL = 24 * time.Hour

// RedisStatus stores session snapshots in Redis so progress survives a
// service restart and is visible across replicas.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
}

func NewRedisStatus(redisURL string) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStatus{client: c, keyNS: "upload"}, nil
}

var _ StatusStore = (*RedisStatus)(nil)

func (s *RedisStatus) key(sessionID string) string {
	return fmt.Sprintf("%s:%s:status", s.keyNS, sessionID)
}

func (s *RedisStatus) Set(ctx context.Context, sessionID string, st SessionStatus) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), b, sessionTTL).Err()
}

func (s *RedisStatus) Get(ctx context.Context, sessionID string) (SessionStatus, bool, error) {
	res, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return SessionStatus{}, false, nil
	}
	if err != nil {
		return SessionStatus{}, false, err
	}
	var st SessionStatus
	if err := json.Unmarshal(res, &st); err != nil {
		return SessionStatus{}, false, err
	}
	return st, true, nil
}

func (s *RedisStatus) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisStatus) Close() error { return s.client.Close() }
