package rag_test

import (
	"context"

	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
)

// MockIndex implements vectorDB.Index
type MockIndex struct {
	// Control fields to simulate different behaviors
	OnQuery            func(ctx context.Context, collection string, vector []float32, k int) ([]commonModels.SearchHit, error)
	OnEnsureCollection func(ctx context.Context, collection string, dim int32) error
	OnUpsertOne        func(ctx context.Context, collection string, entry commonModels.IndexEntry) error
	OnUpsertMany       func(ctx context.Context, collection string, entries []commonModels.IndexEntry) error
	OnHasEntry         func(ctx context.Context, collection string, id string) (bool, error)
}

func (m *MockIndex) Query(ctx context.Context, collection string, vector []float32, k int) ([]commonModels.SearchHit, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, collection, vector, k)
	}
	return []commonModels.SearchHit{{Id: "c1", Score: 0.8, Text: "default context", Origin: "default.txt"}}, nil
}

func (m *MockIndex) EnsureCollection(ctx context.Context, collection string, dim int32) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, collection, dim)
	}
	return nil
}

func (m *MockIndex) UpsertOne(ctx context.Context, collection string, entry commonModels.IndexEntry) error {
	if m.OnUpsertOne != nil {
		return m.OnUpsertOne(ctx, collection, entry)
	}
	return nil
}

func (m *MockIndex) UpsertMany(ctx context.Context, collection string, entries []commonModels.IndexEntry) error {
	if m.OnUpsertMany != nil {
		return m.OnUpsertMany(ctx, collection, entries)
	}
	return nil
}

func (m *MockIndex) HasEntry(ctx context.Context, collection string, id string) (bool, error) {
	if m.OnHasEntry != nil {
		return m.OnHasEntry(ctx, collection, id)
	}
	return false, nil
}

// MockCache implements vectorDB.AnswerCache
type MockCache struct {
	OnGetCachedAnswer func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache     func(ctx context.Context, id string, vector []float32, answer string) error
}

func (m *MockCache) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return "", false, nil
}

func (m *MockCache) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1, 0.2}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	// Return dummy vectors matching chunk count
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func (m *MockEmbedder) Dimension() int32 { return 2 }

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, system string, prompt string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, system string, prompt string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, prompt)
	}
	return "mocked llm response", nil
}
