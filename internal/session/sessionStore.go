package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ibu-sdp/rag-api/internal/adapter/utils"
	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/data/redisStore"
	"github.com/ibu-sdp/rag-api/internal/domain/chatModel"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

// Store keeps per-session conversation turns. Append and History on the same
// session are safe to call concurrently; turns come back oldest first.
type Store interface {
	Create(ctx context.Context) (string, error)
	Append(ctx context.Context, sessionId string, turn chatModel.Turn) error
	History(ctx context.Context, sessionId string) ([]chatModel.Turn, error)
	Exists(ctx context.Context, sessionId string) (bool, error)
}

type entry struct {
	mu        sync.Mutex
	turns     []chatModel.Turn
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore holds sessions in process memory and, when a Redis store is
// attached, writes every turn through so sessions survive a restart. A
// session missing from memory is hydrated from Redis on first touch.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	persist  *redisStore.Store
	logger   *logger_i.Logger
}

func NewStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		logger:   logger_i.NewLogger("SessionStore"),
	}
}

// NewPersistentStore attaches the Redis session database. When Redis is
// offline the store still works, memory only.
func NewPersistentStore(ctx context.Context) *MemoryStore {
	s := NewStore()
	s.persist = redisStore.GetRedisStore(ctx, config.RedisSessionStore)
	if s.persist == nil {
		s.logger.Error("Redis unavailable, sessions will not survive a restart")
	}
	return s
}

// TestStoreWithPersistence builds a store over a caller-supplied Redis
// store, so tests can point it at miniredis.
func TestStoreWithPersistence(persist *redisStore.Store) *MemoryStore {
	s := NewStore()
	s.persist = persist
	return s
}

func metaKey(sessionId string) string  { return "session:" + sessionId + ":meta" }
func turnsKey(sessionId string) string { return "session:" + sessionId + ":turns" }

func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	id := utils.GetNewUUID()
	now := time.Now().UTC()

	s.mu.Lock()
	s.sessions[id] = &entry{createdAt: now, updatedAt: now}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Set(ctx, metaKey(id), now.Format(time.RFC3339), config.RedisSessionStoreTTL); err != nil {
			s.logger.Error("Failed persisting new session", "sessionId", id, "error", err)
		}
	}
	s.logger.Debug("Created session", "sessionId", id)
	return id, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionId string, turn chatModel.Turn) error {
	e, err := s.lookup(ctx, sessionId)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = append(e.turns, turn)
	e.updatedAt = time.Now().UTC()

	if s.persist != nil {
		// Pushed under the entry lock so Redis sees the same turn order
		// as memory.
		raw, err := json.Marshal(turn)
		if err != nil {
			s.logger.Error("Failed marshalling turn", "sessionId", sessionId, "error", err)
			return nil
		}
		if err := s.persist.ListPush(ctx, turnsKey(sessionId), raw); err != nil {
			s.logger.Error("Failed persisting turn", "sessionId", sessionId, "error", err)
			return nil
		}
		_ = s.persist.Expire(ctx, turnsKey(sessionId), config.RedisSessionStoreTTL)
		_ = s.persist.Expire(ctx, metaKey(sessionId), config.RedisSessionStoreTTL)
	}
	return nil
}

func (s *MemoryStore) History(ctx context.Context, sessionId string) ([]chatModel.Turn, error) {
	e, err := s.lookup(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]chatModel.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (s *MemoryStore) Exists(ctx context.Context, sessionId string) (bool, error) {
	s.mu.RLock()
	_, ok := s.sessions[sessionId]
	s.mu.RUnlock()
	if ok {
		return true, nil
	}
	if s.persist == nil {
		return false, nil
	}
	found, err := s.persist.Exists(ctx, metaKey(sessionId))
	if err != nil && !s.persist.IsNil(err) {
		s.logger.Error("Failed checking session in Redis", "sessionId", sessionId, "error", err)
		return false, err
	}
	return found, nil
}

func (s *MemoryStore) lookup(ctx context.Context, sessionId string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionId]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}
	return s.hydrate(ctx, sessionId)
}

// hydrate rebuilds a session from Redis after a restart.
func (s *MemoryStore) hydrate(ctx context.Context, sessionId string) (*entry, error) {
	if s.persist == nil {
		return nil, chatModel.ErrSessionNotFound
	}
	found, err := s.persist.Exists(ctx, metaKey(sessionId))
	if err != nil || !found {
		return nil, chatModel.ErrSessionNotFound
	}

	raw, err := s.persist.ListGetAll(ctx, turnsKey(sessionId))
	if err != nil {
		s.logger.Error("Failed hydrating session", "sessionId", sessionId, "error", err)
		return nil, err
	}
	turns := make([]chatModel.Turn, 0, len(raw))
	for _, r := range raw {
		var t chatModel.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			s.logger.Error("Skipping malformed turn in Redis", "sessionId", sessionId, "error", err)
			continue
		}
		turns = append(turns, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionId]; ok {
		return existing, nil
	}
	e := &entry{turns: turns, createdAt: time.Now().UTC(), updatedAt: time.Now().UTC()}
	s.sessions[sessionId] = e
	s.logger.Info("Hydrated session from Redis", "sessionId", sessionId, "turns", len(turns))
	return e, nil
}
