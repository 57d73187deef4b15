package rag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ibu-sdp/rag-api/internal/domain/chatModel"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/metrics"
	"github.com/ibu-sdp/rag-api/internal/rag/answer"
	"github.com/ibu-sdp/rag-api/internal/rag/ingest"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

// Service is the worker's whole view of the RAG side. The worker never sees
// the embedder, the index or the model clients - swapping any of them for a
// mock never touches the worker.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	RescanDataDir(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	answerer *answer.Answerer
	pipeline *ingest.Pipeline
	logger   *logger_i.Logger
}

// NewService constructor
func NewService(a *answer.Answerer, p *ingest.Pipeline) Service {
	return &service{
		answerer: a,
		pipeline: p,
		logger:   logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.jobLogger(ctx, job)

	processContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	job.CurrentStep = jobModel.RAGCall

	start := time.Now()
	res, err := s.answerer.Answer(processContext, job.JobPayload.Question, job.SessionId)
	metrics.CaptureExecutionMetrics("answer", time.Since(start))

	job.SessionId = res.SessionId
	if err != nil {
		if errors.Is(err, chatModel.ErrSessionNotFound) {
			return s.jobError(job, err, http.StatusNotFound, "Unknown session id", false)
		}
		return s.jobError(job, err, http.StatusInternalServerError, "Internal Server Error", commonModels.IsTransient(err))
	}

	log.Debug("Answer produced", "cached", res.Cached, "sources", len(res.Sources))
	job.JobPayload.Answer = res.Text
	job.JobPayload.Sources = res.Sources
	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.jobLogger(ctx, job)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	// The handler already parked the upload in the data dir; the file stays
	// there so a later rescan can pick it up again.
	job.CurrentStep = jobModel.IngestProcessing
	res := s.pipeline.IngestFile(ctx, job.JobPayload.IngestURL, job.JobPayload.ForceRefresh)
	job.JobPayload.IngestResults = []jobModel.IngestOutcome{toOutcome(res)}
	log.Debug("Ingest finished", "stage", res.Stage, "chunks", res.ChunkCount, "skipped", res.Skipped)

	if res.Err != nil {
		return s.jobError(job, res.Err, http.StatusInternalServerError, "Ingestion failed", commonModels.IsTransient(res.Err))
	}
	job.CurrentStep = jobModel.Complete
	return job
}

// RescanDataDir re-ingests every supported file under the data directory.
// Per-document failures land in the outcomes, they do not fail the job.
func (s *service) RescanDataDir(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.jobLogger(ctx, job)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("rescan", time.Since(start)) }()

	job.CurrentStep = jobModel.IngestProcessing
	paths, err := listIngestableFiles()
	if err != nil {
		return s.jobError(job, err, http.StatusInternalServerError, "Could not list data directory", true)
	}
	log.Info("Rescanning data directory", "files", len(paths))

	results := s.pipeline.IngestAll(ctx, paths, job.JobPayload.ForceRefresh)
	outcomes := make([]jobModel.IngestOutcome, len(results))
	failed := 0
	for i, r := range results {
		outcomes[i] = toOutcome(r)
		if r.Err != nil {
			failed++
		}
	}
	job.JobPayload.IngestResults = outcomes
	if failed > 0 {
		log.Error("Rescan finished with failures", "failed", failed, "total", len(results))
	}
	job.CurrentStep = jobModel.Complete
	return job
}
