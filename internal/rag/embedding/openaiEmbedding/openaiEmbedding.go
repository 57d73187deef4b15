package openaiEmbedding

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/customHttpClient"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

var errShortBatch = errors.New("embedding count does not match input count")

type client struct {
	api   openai.Client
	model string
}

func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		newOpenAIEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{api: embeddingClient.api, model: embeddingClient.model}
}

func newOpenAIEmbedder(ctx context.Context, modelName string, apikey string) {
	if apikey == "" {
		logger.Error("OpenAI embedding client needs an API key")
		return
	}
	c := openai.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.PooledClient()),
	)
	embeddingClient = &client{api: c, model: modelName}
	logger.Info("OpenAI embedding client created", "model", modelName)
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing OpenAI embedding client")
	embeddingClient.model = ""
}

func (c *client) Dimension() int32 {
	return dimension
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.doCall(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	return c.doCall(ctx, chunks)
}

func (c *client) doCall(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(c.model),
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Dimensions: openai.Int(int64(dimension)),
	})
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, &commonModels.TransientError{Op: "openai embedding", Err: err}
	}
	if len(res.Data) != len(texts) {
		log.Error("OpenAI returned a short embedding batch", "want", len(texts), "got", len(res.Data))
		return nil, &commonModels.TransientError{Op: "openai embedding", Err: errShortBatch}
	}

	// The API reports an index per vector, order by it rather than trusting
	// response order.
	vectors := make([][]float32, len(texts))
	for _, item := range res.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}
	return vectors, nil
}
