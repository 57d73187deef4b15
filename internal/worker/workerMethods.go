package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ibu-sdp/rag-api/internal/config"
	jobmodel "github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, 10*time.Minute)
	defer cancel()
	logger.Debug("Processing job", "job Id", job.Id, "type", job.JobType)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	switch job.JobType {
	case jobmodel.JobTypeIngest:
		job = _ragService.IngestDocument(ctx, job)
	case jobmodel.JobTypeRescan:
		job = _ragService.RescanDataDir(ctx, job)
	default:
		// Session writes happen inside the answerer, the worker only
		// carries the resolved session id back onto the job.
		job.CurrentStep = jobmodel.SessionCall
		job = _ragService.ProcessRequest(ctx, job)
	}

	job.EndTime = time.Now()
	if job.Status == jobmodel.JobStatusError {
		saveJobState(ctx, job, jobmodel.JobStatusError)
		return
	}
	saveJobState(ctx, job, jobmodel.JobStatusComplete)
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}
