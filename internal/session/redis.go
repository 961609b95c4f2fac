package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrConflict is returned when an update keeps losing the optimistic lock.
var ErrConflict = errors.New("session: concurrent update, retries exhausted")

// RedisStore keeps sessions as JSON values with a sliding TTL. Updates use
// WATCH/MULTI so concurrent writers never overwrite each other.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	maxRetries int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the idle expiry.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = d }
}

// WithMaxRetries sets how many times a conflicting update is retried.
func WithMaxRetries(n int) RedisOption {
	return func(s *RedisStore) { s.maxRetries = n }
}

// NewRedisStore creates a RedisStore over rdb.
func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:        rdb,
		prefix:     "viabilidade:session",
		ttl:        DefaultTTL,
		maxRetries: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Create stores st under a new ID.
func (s *RedisStore) Create(ctx context.Context, st *State) error {
	st.ID = uuid.NewString()
	st.UpdatedAt = time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, s.key(st.ID), data, s.ttl).Err()
}

// Get returns the session.
func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

// Update applies fn under WATCH and commits with MULTI/EXEC, retrying on conflict.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	key := s.key(id)
	var updated *State

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		st, err := decodeState(data)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		st.ID = id
		st.UpdatedAt = time.Now()
		out, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err == nil {
			updated = st
		}
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConflict
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeState(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}
