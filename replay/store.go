package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps replays for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	replays map[uuid.UUID]*Replay
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{replays: map[uuid.UUID]*Replay{}}
}

func (ms *MemoryStore) Save(_ context.Context, r *Replay) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := *r
	cp.Entries = append([]Entry(nil), r.Entries...)
	ms.replays[r.ID] = &cp
	return nil
}

func (ms *MemoryStore) Load(_ context.Context, id uuid.UUID) (*Replay, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	r, ok := ms.replays[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	cp.Entries = append([]Entry(nil), r.Entries...)
	return &cp, nil
}

const redisKeyPrefix = "pathfinder:replay:"

// RedisStore keeps replays as json strings that expire after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A zero ttl keeps replays forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}

func (rs *RedisStore) Save(ctx context.Context, r *Replay) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode replay %s: %w", r.ID, err)
	}
	if err = rs.client.Set(ctx, redisKey(r.ID), data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("save replay %s: %w", r.ID, err)
	}
	return nil
}

func (rs *RedisStore) Load(ctx context.Context, id uuid.UUID) (*Replay, error) {
	data, err := rs.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", id, err)
	}

	r := &Replay{}
	if err = json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", id, err)
	}
	return r, nil
}

// Ping checks the connection, so a misconfigured address fails at startup.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}
