package vectorDB

import (
	"context"

	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
)

// Index is the vector store surface the pipeline and the answerer share.
// Upserts are keyed by the entry id, so re-indexing unchanged content
// overwrites in place instead of duplicating.
type Index interface {
	EnsureCollection(ctx context.Context, collectionName string, dimension int32) error
	UpsertOne(ctx context.Context, collectionName string, entry commonModels.IndexEntry) error
	UpsertMany(ctx context.Context, collectionName string, entries []commonModels.IndexEntry) error

	// Query returns up to k nearest entries ordered by descending similarity.
	Query(ctx context.Context, collectionName string, vector []float32, k int) ([]commonModels.SearchHit, error)
	HasEntry(ctx context.Context, collectionName string, id string) (bool, error)
}

// AnswerCache stores finished answers keyed by the question embedding, so a
// near-identical question can be served without another LLM round trip.
type AnswerCache interface {
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string) error
}
