package memoryIndex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

// MemoryIndex is a process-local vector store with the same surface as the
// Qdrant adapter. It backs tests and keeps the API answering when the vector
// database is unreachable; everything in it is lost on restart.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
	logger      *logger_i.Logger
}

type collection struct {
	dimension int32
	entries   map[string]storedEntry
	seq       uint64
}

type storedEntry struct {
	entry commonModels.IndexEntry
	seq   uint64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		collections: make(map[string]*collection),
		logger:      logger_i.NewLogger("memory_index"),
	}
}

func (m *MemoryIndex) EnsureCollection(_ context.Context, collectionName string, dimension int32) error {
	if collectionName == "" {
		return fmt.Errorf("empty collection name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collectionName]; !ok {
		m.collections[collectionName] = &collection{
			dimension: dimension,
			entries:   make(map[string]storedEntry),
		}
	}
	return nil
}

func (m *MemoryIndex) UpsertOne(ctx context.Context, collectionName string, entry commonModels.IndexEntry) error {
	return m.UpsertMany(ctx, collectionName, []commonModels.IndexEntry{entry})
}

func (m *MemoryIndex) UpsertMany(_ context.Context, collectionName string, entries []commonModels.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collectionName]
	if !ok {
		return fmt.Errorf("unknown collection %q", collectionName)
	}
	for _, entry := range entries {
		if int32(len(entry.Embedding)) != col.dimension {
			return fmt.Errorf("entry %s has dimension %d, collection %q wants %d",
				entry.Id, len(entry.Embedding), collectionName, col.dimension)
		}
		col.seq++
		col.entries[entry.Id] = storedEntry{entry: entry, seq: col.seq}
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, collectionName string, vector []float32, k int) ([]commonModels.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.collections[collectionName]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collectionName)
	}

	type scored struct {
		hit commonModels.SearchHit
		seq uint64
	}
	candidates := make([]scored, 0, len(col.entries))
	for _, stored := range col.entries {
		score := cosine(vector, stored.entry.Embedding)
		candidates = append(candidates, scored{
			hit: commonModels.SearchHit{
				Id:       stored.entry.Id,
				Score:    score,
				Text:     stored.entry.Text,
				Origin:   stored.entry.Origin,
				Ordinal:  stored.entry.Ordinal,
				ParentId: stored.entry.ParentId,
				Metadata: stored.entry.Metadata,
			},
			seq: stored.seq,
		})
	}

	// Equal scores break toward the most recently upserted entry.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].hit.Score != candidates[j].hit.Score {
			return candidates[i].hit.Score > candidates[j].hit.Score
		}
		return candidates[i].seq > candidates[j].seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]commonModels.SearchHit, 0, k)
	for _, c := range candidates[:k] {
		hits = append(hits, c.hit)
	}
	return hits, nil
}

func (m *MemoryIndex) HasEntry(_ context.Context, collectionName string, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.collections[collectionName]
	if !ok {
		return false, nil
	}
	_, found := col.entries[id]
	return found, nil
}

func (m *MemoryIndex) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	if err := m.EnsureCollection(ctx, config.SemanticCacheCollection, int32(len(queryVector))); err != nil {
		return "", false, err
	}
	hits, err := m.Query(ctx, config.SemanticCacheCollection, queryVector, 1)
	if err != nil || len(hits) == 0 {
		return "", false, err
	}
	if hits[0].Score < config.CacheSimilarityCutoff {
		return "", false, nil
	}
	return hits[0].Text, true, nil
}

func (m *MemoryIndex) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	if err := m.EnsureCollection(ctx, config.SemanticCacheCollection, int32(len(vector))); err != nil {
		return err
	}
	return m.UpsertOne(ctx, config.SemanticCacheCollection, commonModels.IndexEntry{
		Id:        id,
		Embedding: vector,
		Text:      answer,
	})
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
