package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loanbot/internal/cache"
)

const keyPrefix = "session:"

// RedisStore persists sessions in Redis with an optimistic version check, so
// concurrent events against a distributed deployment cannot lose transitions.
type RedisStore struct {
	redis *cache.Redis
	ttl   time.Duration
}

// NewRedisStore wraps the shared Redis client. A zero ttl keeps sessions
// forever; production sets one so long-dead conversations age out.
func NewRedisStore(r *cache.Redis, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: r, ttl: ttl}
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.redis.GetJSON(ctx, keyPrefix+id, &s)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Put implements Store. The write runs under WATCH: if another writer bumped
// the version between our read and this write, ErrVersionConflict is returned
// and the caller replays its transition against the fresh session.
func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	key := keyPrefix + s.ID
	next := s.Clone()
	next.Version++

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	err = r.redis.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			if s.Version != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("read session %s: %w", s.ID, err)
		default:
			var cur Session
			if err := json.Unmarshal([]byte(raw), &cur); err != nil {
				return fmt.Errorf("decode session %s: %w", s.ID, err)
			}
			if cur.Version != s.Version {
				return ErrVersionConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)
	if err == redis.TxFailedErr {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	s.Version = next.Version
	return nil
}

// List implements Store by scanning the session keyspace.
func (r *RedisStore) List(ctx context.Context) ([]*Session, error) {
	keys, err := r.redis.ScanKeys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(keys))
	for _, key := range keys {
		var s Session
		found, err := r.redis.GetJSON(ctx, key, &s)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, &s)
		}
	}
	return out, nil
}
