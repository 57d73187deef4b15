package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/rag/ingest"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

func (s *service) jobLogger(ctx context.Context, job jobModel.Job) *logger_i.Logger {
	return s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", job.Id)
}

func (s *service) jobError(job jobModel.Job, err error, code int, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "JobId", job.Id, "error", err)

	job.Error = jobModel.JobError{
		Code:    code,
		Message: message,
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func toOutcome(res ingest.Result) jobModel.IngestOutcome {
	out := jobModel.IngestOutcome{
		DocumentId: res.DocumentId,
		Origin:     res.Origin,
		Stage:      string(res.Stage),
		ChunkCount: res.ChunkCount,
		Skipped:    res.Skipped,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

var ingestableExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".rtf":  true,
	".odt":  true,
	".txt":  true,
	".md":   true,
}

func listIngestableFiles() ([]string, error) {
	entries, err := os.ReadDir(config.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ingestableExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(config.DataDir, e.Name()))
		}
	}
	return paths, nil
}
