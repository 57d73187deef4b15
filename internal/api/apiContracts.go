package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	SessionId string            `json:"session_id" example:"session_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

type IngestOutcome struct {
	DocumentId string `json:"document_id"`
	Origin     string `json:"origin"`
	Stage      string `json:"stage"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Result struct {
	Status              string          `json:"status"`
	RAGExternalResponse *RAGResponse    `json:"rag_response,omitempty"`
	IngestOutcomes      []IngestOutcome `json:"ingest_outcomes,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type RescanRequest struct {
	Force bool `json:"force,omitempty"`
}
