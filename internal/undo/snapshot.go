package undo

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

// Window is how long a batch write stays reversible
const Window = 120 * time.Second

// ErrWindowClosed is returned when a snapshot is gone, whether it
// expired or was consumed. It is an expected condition: callers surface
// "the undo window has closed", never a generic failure.
var ErrWindowClosed = errors.New("undo window closed")

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// Entry records the pre-operation state of one entity touched by a batch
// write. Prior is empty for creates; undoing a create deletes the entity,
// undoing an update restores the prior field values.
type Entry struct {
	Op       Op                `json:"op"`
	EntityID string            `json:"entity_id"`
	Prior    map[string]string `json:"prior,omitempty"`
}

// Snapshot is a time-boxed compensating-action log for the most recent
// batch write of one wizard step
type Snapshot struct {
	ID         string    `json:"id"`
	Step       string    `json:"step"`
	EntityKind string    `json:"entity_kind"`
	Entries    []Entry   `json:"entries"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Store keeps undo snapshots keyed by generated id. A snapshot is removed
// after a successful undo, after expiry, or when the user dismisses the
// undo banner, whichever happens first.
type Store interface {
	Create(ctx context.Context, step, entityKind string, entries []Entry) (*Snapshot, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) (int, error)
}

func newSnapshot(step, entityKind string, entries []Entry, window time.Duration) *Snapshot {
	now := time.Now()
	return &Snapshot{
		ID:         uuid.New().String(),
		Step:       step,
		EntityKind: entityKind,
		Entries:    entries,
		CreatedAt:  now,
		ExpiresAt:  now.Add(window),
	}
}

const redisIndexKey = "undo:index"

func redisSnapKey(id string) string {
	return "undo:snapshot:" + id
}

// RedisStore stores snapshots with a TTL equal to the undo window; an
// index set lets the sweep task drop references to expired snapshots.
type RedisStore struct {
	client *redis.Client
	window time.Duration
}

func NewRedisStore(client *redis.Client, window time.Duration) *RedisStore {
	if window <= 0 {
		window = Window
	}
	return &RedisStore{client: client, window: window}
}

func (s *RedisStore) Create(ctx context.Context, step, entityKind string, entries []Entry) (*Snapshot, error) {
	snap := newSnapshot(step, entityKind, entries, s.window)
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, redisSnapKey(snap.ID), data, s.window).Err(); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, redisIndexKey, snap.ID).Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, redisSnapKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrWindowClosed
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	// Redis TTL normally handles this; the clock check covers the window
	// between expiry and key eviction
	if time.Now().After(snap.ExpiresAt) {
		return nil, ErrWindowClosed
	}
	return &snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisSnapKey(id)).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, redisIndexKey, id).Err()
}

// Sweep removes index references whose snapshot key already expired
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, redisSnapKey(id)).Result()
		if err != nil {
			return removed, err
		}
		if exists == 0 {
			if err := s.client.SRem(ctx, redisIndexKey, id).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// MemoryStore is the in-process fallback (no Redis) and the test double
type MemoryStore struct {
	mu        sync.RWMutex
	window    time.Duration
	snapshots map[string]*Snapshot
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = Window
	}
	return &MemoryStore{
		window:    window,
		snapshots: make(map[string]*Snapshot),
	}
}

func (s *MemoryStore) Create(_ context.Context, step, entityKind string, entries []Entry) (*Snapshot, error) {
	snap := newSnapshot(step, entityKind, entries, s.window)
	s.mu.Lock()
	s.snapshots[snap.ID] = snap
	s.mu.Unlock()
	return snap, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.snapshots[id]
	s.mu.RUnlock()
	// Expiry is enforced on read even when the snapshot was never removed
	if !ok || time.Now().After(snap.ExpiresAt) {
		return nil, ErrWindowClosed
	}
	return snap, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.snapshots, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, snap := range s.snapshots {
		if now.After(snap.ExpiresAt) {
			delete(s.snapshots, id)
			removed++
		}
	}
	return removed, nil
}
