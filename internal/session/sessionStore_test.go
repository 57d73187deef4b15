package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ibu-sdp/rag-api/internal/data/redisStore"
	"github.com/ibu-sdp/rag-api/internal/domain/chatModel"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := s.Exists(ctx, id)
	if err != nil || !found {
		t.Fatalf("Created session not found, found=%v err=%v", found, err)
	}

	if err := s.Append(ctx, id, chatModel.NewTurn(chatModel.RoleUser, "hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, id, chatModel.NewTurn(chatModel.RoleAssistant, "hi there")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != chatModel.RoleUser || turns[1].Role != chatModel.RoleAssistant {
		t.Error("Turns came back out of order")
	}
}

func TestMemoryStore_UnknownSession(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Append(ctx, "ghost", chatModel.NewTurn(chatModel.RoleUser, "x")); !errors.Is(err, chatModel.ErrSessionNotFound) {
		t.Errorf("Append to unknown session: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := s.History(ctx, "ghost"); !errors.Is(err, chatModel.ErrSessionNotFound) {
		t.Errorf("History of unknown session: expected ErrSessionNotFound, got %v", err)
	}
	found, err := s.Exists(ctx, "ghost")
	if err != nil || found {
		t.Errorf("Exists on unknown session: found=%v err=%v", found, err)
	}
}

func TestMemoryStore_HistoryReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id, _ := s.Create(ctx)
	_ = s.Append(ctx, id, chatModel.NewTurn(chatModel.RoleUser, "original"))

	turns, _ := s.History(ctx, id)
	turns[0].Content = "mutated"

	again, _ := s.History(ctx, id)
	if again[0].Content != "original" {
		t.Error("History handed out a reference to internal state")
	}
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id, _ := s.Create(ctx)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, id, chatModel.NewTurn(chatModel.RoleUser, "msg"))
		}()
	}
	wg.Wait()

	turns, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != workers {
		t.Errorf("Lost appends under concurrency: expected %d, got %d", workers, len(turns))
	}
}

func TestPersistentStore_WriteThroughAndHydrate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	first := TestStoreWithPersistence(redisStore.NewTestStore(client))
	id, err := first.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_ = first.Append(ctx, id, chatModel.NewTurn(chatModel.RoleUser, "what are the library hours?"))
	_ = first.Append(ctx, id, chatModel.NewTurn(chatModel.RoleAssistant, "open weekdays 8-20"))

	// A fresh store over the same Redis simulates a restart.
	second := TestStoreWithPersistence(redisStore.NewTestStore(client))

	found, err := second.Exists(ctx, id)
	if err != nil || !found {
		t.Fatalf("Session did not survive the restart, found=%v err=%v", found, err)
	}

	turns, err := second.History(ctx, id)
	if err != nil {
		t.Fatalf("History after hydrate failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected 2 hydrated turns, got %d", len(turns))
	}
	if turns[0].Content != "what are the library hours?" || turns[1].Content != "open weekdays 8-20" {
		t.Error("Hydrated turns are out of order or corrupted")
	}

	// Appends after hydration keep flowing to Redis.
	_ = second.Append(ctx, id, chatModel.NewTurn(chatModel.RoleUser, "and weekends?"))
	third := TestStoreWithPersistence(redisStore.NewTestStore(client))
	turns, _ = third.History(ctx, id)
	if len(turns) != 3 {
		t.Errorf("Post-hydration append not persisted, got %d turns", len(turns))
	}
}
