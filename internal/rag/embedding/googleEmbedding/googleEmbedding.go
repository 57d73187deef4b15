package googleEmbedding

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
	}
	if c != nil {
		embeddingClient = &client{
			genAi: c,
			model: modelName,
		}
		logger.Info("Google Embedding client created", "model", modelName)
		go closeClient(ctx, embeddingClient)
	}
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
	embeddingClient.genAi = nil
	embeddingClient.model = ""
}

func (c *client) Dimension() int32 {
	return dimension
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := c.doCall(ctx, genai.Text(query))
	if err != nil {
		log.Error("Error getting Embedding from Google", "error", err)
		return nil, &commonModels.TransientError{Op: "google embedding", Err: err}
	}
	return result.Embeddings[0].Values, nil
}

// BatchEmbedding embeds chunks in sub-batches so a single oversized document
// does not exceed the per-request content limit. A rate-limited sub-batch is
// retried once after a pause.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += config.EmbeddingBatchSize {
		end := min(start+config.EmbeddingBatchSize, len(chunks))

		res, err := c.doCall(ctx, getContent(chunks[start:end]))
		if err != nil && doRetry(err, log) {
			log.Debug("Retrying in 5 seconds")
			time.Sleep(5 * time.Second)
			res, err = c.doCall(ctx, getContent(chunks[start:end]))
		}
		if err != nil {
			log.Error("Error getting batch Embeddings from Google", "error", err)
			return nil, &commonModels.TransientError{Op: "google embedding", Err: err}
		}
		for _, r := range res.Embeddings {
			vectors = append(vectors, r.Values)
		}
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
}
