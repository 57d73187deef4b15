package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/job"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

// MockRagService to track if jobs are executed
type MockRagService struct {
	ProcessedCount int32
	IngestedCount  int32
	RescannedCount int32
}

func (m *MockRagService) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	return j
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.IngestedCount, 1)
	return j
}

func (m *MockRagService) RescanDataDir(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.RescannedCount, 1)
	return j
}

type MockJobStore struct {
	OnSaveJob func(ctx context.Context, job jobModel.Job) error
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {
}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

func TestWorkerPool_Flow(t *testing.T) {
	// 1. Setup
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          &MockJobStore{},
	}
	mockRag := &MockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		// Signal dispatcher to create a worker
		jobSvc.DispatcherChannel <- true

		// Give it a millisecond to spawn
		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker routes jobs by type", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "query-1", JobType: jobModel.JobTypeQuery}
		jobSvc.JobChannel <- jobModel.Job{Id: "ingest-1", JobType: jobModel.JobTypeIngest}
		jobSvc.JobChannel <- jobModel.Job{Id: "rescan-1", JobType: jobModel.JobTypeRescan}

		// Wait for workers to pick up and process
		time.Sleep(100 * time.Millisecond)

		if n := atomic.LoadInt32(&mockRag.ProcessedCount); n != 1 {
			t.Errorf("Expected 1 query processed, got %d", n)
		}
		if n := atomic.LoadInt32(&mockRag.IngestedCount); n != 1 {
			t.Errorf("Expected 1 document ingested, got %d", n)
		}
		if n := atomic.LoadInt32(&mockRag.RescannedCount); n != 1 {
			t.Errorf("Expected 1 rescan, got %d", n)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		// Send stop signal
		close(stopChan)

		// Wait for workers to exit
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_PersistsErrorStatus(t *testing.T) {
	var lastStatus jobModel.JobStatus
	var mu sync.Mutex
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
		JobStore: &MockJobStore{
			OnSaveJob: func(ctx context.Context, j jobModel.Job) error {
				mu.Lock()
				lastStatus = j.Status
				mu.Unlock()
				return nil
			},
		},
	}
	failingRag := &failingRagService{}
	InitServices(jobSvc, failingRag)
	logger = logger_i.NewLogger("TestWorkerPool")

	executeJob(jobModel.Job{Id: "doomed", JobType: jobModel.JobTypeQuery})

	mu.Lock()
	defer mu.Unlock()
	if lastStatus != jobModel.JobStatusError {
		t.Errorf("Failed job should end in error status, got %s", lastStatus)
	}
}

type failingRagService struct{}

func (f *failingRagService) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job {
	j.Status = jobModel.JobStatusError
	j.Error = jobModel.JobError{Code: 500, Message: "boom"}
	return j
}

func (f *failingRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

func (f *failingRagService) RescanDataDir(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

func TestWorker_IdleTimeout(t *testing.T) {
	// Temporarily override config/globals for test
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 2) // Must be > 1 based on the retirement rule
	logger = logger_i.NewLogger("TestWorkerPool")
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
	}
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	// Spawn 1 worker manually
	createWorker()
	time.Sleep(config.IdleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Assertion Failed: Worker should have timed out and retired, but count is %d", count)
	}
}
