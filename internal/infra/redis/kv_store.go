package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"timed-quiz/internal/domain"
)

// KeyValueStore keeps quiz state in Redis, one string key per user.
// Values expire after ttl unless it is zero.
type KeyValueStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewKeyValueStore(client *redis.Client, ttl time.Duration) *KeyValueStore {
	return &KeyValueStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify(err)
	}
	return value, true, nil
}

func (s *KeyValueStore) Set(ctx context.Context, key, value string) error {
	return classify(s.client.Set(ctx, key, value, s.ttl).Err())
}

func (s *KeyValueStore) Remove(ctx context.Context, key string) error {
	return classify(s.client.Del(ctx, key).Err())
}

// classify maps Redis failures onto the storage error taxonomy: maxmemory
// rejections are quota errors, everything else means Redis is unusable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "OOM ") {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
