package openaiLLM

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/customHttpClient"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/rag/llm"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

type llmClient struct {
	api       openai.Client
	modelName string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

var errNoChoices = errors.New("completion returned no choices")

func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		newOpenAIClient(ctx, modelName, apikey)
	})

	if openaiClient == nil {
		return nil
	}
	return &llmClient{api: openaiClient.api, modelName: openaiClient.modelName}
}

func newOpenAIClient(ctx context.Context, modelName string, apikey string) {
	if apikey == "" {
		logger.Error("OpenAI client needs an API key")
		return
	}
	c := openai.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.PooledClient()),
	)
	openaiClient = &llmClient{api: c, modelName: modelName}
	logger.Info("OpenAI client created", "model", modelName)
	go closeClient(ctx, openaiClient)
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing OpenAI client")
	llm.modelName = ""
}

func (c *llmClient) Complete(ctx context.Context, systemInstruction string, prompt string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	res, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(config.ModelTemperature)),
	})
	if err != nil {
		log.Error("Error getting completion from OpenAI", "error", err)
		return "", &commonModels.TransientError{Op: "openai completion", Err: err}
	}
	if len(res.Choices) == 0 {
		log.Error("OpenAI completion had no choices")
		return "", errNoChoices
	}
	return res.Choices[0].Message.Content, nil
}
