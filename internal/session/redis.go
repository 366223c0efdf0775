package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	chatdomain "github.com/havensuites/concierge/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix = "concierge:session:"
	maxTxAttempts    = 3
)

// ErrSessionContention is returned when a session kept changing under a
// turn for every attempt.
var ErrSessionContention = errors.New("session updated concurrently, giving up")

// RedisStore shares sessions between replicas. Each session is one JSON
// value with a TTL refreshed on every write. Update is optimistic: it
// WATCHes the key and re-runs fn when another writer got there first.
type RedisStore struct {
	client     *redis.Client
	ttl        time.Duration
	onConflict func()
}

// NewRedisStore creates a store on client. onConflict, if not nil, is
// called each time a turn has to be re-run.
func NewRedisStore(client *redis.Client, ttl time.Duration, onConflict func()) *RedisStore {
	if onConflict == nil {
		onConflict = func() {}
	}
	return &RedisStore{client: client, ttl: ttl, onConflict: onConflict}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Update runs fn under WATCH on the session key and writes the result in
// a MULTI block.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(*chatdomain.ConversationState) error) error {
	key := sessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		state, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}
		b, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.onConflict()
	}
	return ErrSessionContention
}

// Get returns the session's state; unknown sessions are empty.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*chatdomain.ConversationState, error) {
	return load(ctx, s.client, sessionKey(sessionID))
}

// Delete forgets the session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// Ping checks the connection; used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// getter is the part of *redis.Client and *redis.Tx that load needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, key string) (*chatdomain.ConversationState, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return &chatdomain.ConversationState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var state chatdomain.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}
