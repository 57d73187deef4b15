package commonModels

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidChunkParams     = errors.New("invalid chunk parameters")
	ErrEmptyDocument          = errors.New("empty document")
	ErrUnsupportedDocType     = errors.New("unsupported document type")
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match chunk count")
)

// IngestStage tracks how far a document got through the pipeline.
type IngestStage string

const (
	StageReceived IngestStage = "Received"
	StageChunked  IngestStage = "Chunked"
	StageEmbedded IngestStage = "Embedded"
	StageIndexed  IngestStage = "Indexed"
	StageDone     IngestStage = "Done"
	StageFailed   IngestStage = "Failed"
)

// IngestionError reports a per-document failure with the stage it died in.
// Retrying the whole document is safe - ids are content-derived and every
// write is an upsert.
type IngestionError struct {
	DocumentId string
	Origin     string
	Stage      IngestStage
	Err        error
}

func (e *IngestionError) Error() string {
	id := e.DocumentId
	if id == "" {
		id = e.Origin
	}
	return fmt.Sprintf("ingestion failed for document %s at stage %s: %v", id, e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// AnswerError reports a failed answer attempt with the step that broke.
// The question itself is never carried in the error, it may hold user data.
type AnswerError struct {
	Step string
	Err  error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer failed at %s: %v", e.Step, e.Err)
}

func (e *AnswerError) Unwrap() error { return e.Err }

// TransientError marks embedding/index/model network failures as eligible
// for caller-driven retry. The retry policy itself lives above the core.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
