package embedding

import "context"

// Embedder converts text into fixed-dimension vectors. Dimension is constant
// for the process lifetime - the index collections are created against it.
// A provider never substitutes a zero vector on failure; errors propagate so
// the pipeline can decide whether to retry the whole document.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int32
}
