package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/job"
	"github.com/ibu-sdp/rag-api/internal/metrics"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})

}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	logJH.Info("To create new job", "type", newJob.jobType)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// SessionKnown reports whether a caller-supplied session id exists. An empty
// id is fine - the answerer opens a fresh session for it.
func SessionKnown(sessionId string, traceId string) bool {
	if handlerInstance == nil {
		return false
	}
	if sessionId == "" {
		return true
	}
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	found, err := handlerInstance.service.Sessions.Exists(ctxC, sessionId)
	if err != nil {
		logJH.Error("Session lookup failed", "sessionId", sessionId, "err", err)
		return false
	}
	return found
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = newJob.jobType
	_job.JobPayload.ForceRefresh = newJob.force

	switch newJob.jobType {
	case jobModel.JobTypeIngest:
		_job.CurrentStep = jobModel.IngestInit
		_job.JobPayload.IngestFileName = newJob.documentName
		_job.JobPayload.IngestURL = newJob.documentSource
	case jobModel.JobTypeRescan:
		_job.CurrentStep = jobModel.IngestInit
	default:
		_job.SessionId = newJob.sessionId
		_job.JobPayload.Question = newJob.message
		_job.CurrentStep = jobModel.UserQueryInit
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//we will start a new worker every 10 requests - can also be configured
	//for performance - a new worker is also added for ingestion type jobs:
	//ingestion involves batch processing which might take time - external system call
	//worker will be removed if it has idle time - so it should be ok
	//this also allows us to only keep 1 worker running at most times therefore cutting resource spend

	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || newJob.jobType != jobModel.JobTypeQuery {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
