package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit    InternalStatus = "Init"
	CacheCall        InternalStatus = "CacheCall"
	RAGCall          InternalStatus = "RAG"
	LLMCall          InternalStatus = "LLM"
	VectorDBCall     InternalStatus = "VectorDB"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	SessionCall      InternalStatus = "Session"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery  JobType = "Query"
	JobTypeIngest JobType = "Ingest"
	JobTypeRescan JobType = "Rescan"
)

type Job struct {
	Id          string         `json:"id"`
	SessionId   string         `json:"session_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// IngestOutcome is the per-document result of an ingest or rescan job.
// One bad document must not hide the ones that made it through.
type IngestOutcome struct {
	DocumentId string `json:"document_id"`
	Origin     string `json:"origin"`
	Stage      string `json:"stage"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

type JobPayload struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Sources  []string `json:"sources,omitempty"`

	IngestFileName string          `json:"ingest_file_name,omitempty"`
	IngestURL      string          `json:"ingest_url,omitempty"`
	ForceRefresh   bool            `json:"force_refresh,omitempty"`
	IngestResults  []IngestOutcome `json:"ingest_results,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
