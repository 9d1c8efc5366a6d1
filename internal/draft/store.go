package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"benefits-web/internal/grid"
)

// Store mirrors in-progress grid rows so a wizard step survives an
// accidental reload. Drafts are namespaced per owner and step; the
// restore-shown flag keeps the restoration notice from firing more than
// once per session.
type Store interface {
	Save(ctx context.Context, ownerID int, step string, rows []grid.Row) error
	Load(ctx context.Context, ownerID int, step string) ([]grid.Row, bool, error)
	Clear(ctx context.Context, ownerID int, step string) error
	MarkRestoreShown(ctx context.Context, ownerID int, step string) error
	WasRestoreShown(ctx context.Context, ownerID int, step string) (bool, error)
}

// restore-shown flags are session-scoped, not draft-scoped
const restoreShownTTL = 12 * time.Hour

func draftKey(ownerID int, step string) string {
	return fmt.Sprintf("draft:%d:%s", ownerID, step)
}

func shownKey(ownerID int, step string) string {
	return fmt.Sprintf("draft_shown:%d:%s", ownerID, step)
}

// RedisStore persists drafts in Redis with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, ownerID int, step string, rows []grid.Row) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return s.client.Set(ctx, draftKey(ownerID, step), data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, ownerID int, step string) ([]grid.Row, bool, error) {
	data, err := s.client.Get(ctx, draftKey(ownerID, step)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rows []grid.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode draft: %w", err)
	}
	return rows, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, ownerID int, step string) error {
	return s.client.Del(ctx, draftKey(ownerID, step)).Err()
}

func (s *RedisStore) MarkRestoreShown(ctx context.Context, ownerID int, step string) error {
	return s.client.Set(ctx, shownKey(ownerID, step), "1", restoreShownTTL).Err()
}

func (s *RedisStore) WasRestoreShown(ctx context.Context, ownerID int, step string) (bool, error) {
	err := s.client.Get(ctx, shownKey(ownerID, step)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryStore is the fallback used when Redis is unavailable and by
// tests. Drafts kept here do not survive a process restart.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]grid.Row
	shown  map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string][]grid.Row),
		shown:  make(map[string]bool),
	}
}

func (s *MemoryStore) Save(_ context.Context, ownerID int, step string, rows []grid.Row) error {
	copied := make([]grid.Row, len(rows))
	for i, r := range rows {
		copied[i] = r.Clone()
	}
	s.mu.Lock()
	s.drafts[draftKey(ownerID, step)] = copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, ownerID int, step string) ([]grid.Row, bool, error) {
	s.mu.RLock()
	rows, ok := s.drafts[draftKey(ownerID, step)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	copied := make([]grid.Row, len(rows))
	for i, r := range rows {
		copied[i] = r.Clone()
	}
	return copied, true, nil
}

func (s *MemoryStore) Clear(_ context.Context, ownerID int, step string) error {
	s.mu.Lock()
	delete(s.drafts, draftKey(ownerID, step))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) MarkRestoreShown(_ context.Context, ownerID int, step string) error {
	s.mu.Lock()
	s.shown[shownKey(ownerID, step)] = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) WasRestoreShown(_ context.Context, ownerID int, step string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shown[shownKey(ownerID, step)], nil
}
