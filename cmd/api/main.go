package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/data/store"
	jobmodel "github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/handlers"
	"github.com/ibu-sdp/rag-api/internal/job"
	"github.com/ibu-sdp/rag-api/internal/rag"
	"github.com/ibu-sdp/rag-api/internal/rag/answer"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding/googleEmbedding"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding/openaiEmbedding"
	"github.com/ibu-sdp/rag-api/internal/rag/ingest"
	"github.com/ibu-sdp/rag-api/internal/rag/llm"
	"github.com/ibu-sdp/rag-api/internal/rag/llm/gemini"
	"github.com/ibu-sdp/rag-api/internal/rag/llm/openaiLLM"
	"github.com/ibu-sdp/rag-api/internal/rag/vectorDB"
	"github.com/ibu-sdp/rag-api/internal/rag/vectorDB/memoryIndex"
	"github.com/ibu-sdp/rag-api/internal/rag/vectorDB/qdrantDB"
	"github.com/ibu-sdp/rag-api/internal/server"
	"github.com/ibu-sdp/rag-api/internal/session"
	"github.com/ibu-sdp/rag-api/internal/worker"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service, job store and session store
	var jobStore jobmodel.JobStore
	if rs := store.GetRedisJobStore(serviceContext); rs != nil {
		jobStore = rs
	} else {
		logger.Error("Redis job store is offline, falling back to memory")
		jobStore = store.InitInMemoryJobStore()
	}
	sessions := session.NewPersistentStore(serviceContext)

	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
		Sessions:          sessions,
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	//vector index - qdrant when reachable, in-process otherwise
	var index vectorDB.Index
	var answerCache vectorDB.AnswerCache
	if q := qdrantDB.GetQuadrantClient(serviceContext); q != nil {
		index = q
		answerCache = q
	} else {
		logger.Error("Qdrant is offline, falling back to the in-process index")
		mem := memoryIndex.NewMemoryIndex()
		index = mem
		answerCache = mem
	}

	var embeddingService embedding.Embedder
	var llmProvider llm.Provider
	if os.Getenv("LLM_PROVIDER") == "gemini" {
		apikey := os.Getenv("GOOGLE_API_KEY")
		embeddingService = googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, apikey)
		llmProvider = gemini.GetGeminiClient(serviceContext, config.GeminiModelName, apikey)
	} else {
		apikey := os.Getenv("OPENAI_API_KEY")
		embeddingService = openaiEmbedding.GetOpenAIEmbeddingClient(serviceContext, config.OpenAIEmbeddingModel, apikey)
		llmProvider = openaiLLM.GetOpenAIClient(serviceContext, config.OpenAIModelName, apikey)
	}

	if embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	answerer := answer.NewAnswerer(embeddingService, index, answerCache, llmProvider, sessions)
	pipeline := ingest.NewPipeline(embeddingService, index)
	ragService := rag.NewService(answerer, pipeline)

	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
