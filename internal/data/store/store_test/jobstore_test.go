package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/data/redisStore"
	"github.com/ibu-sdp/rag-api/internal/data/store"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	internalStore := redisStore.NewTestStore(client)
	jobStore := store.TestJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:        jobID,
		SessionId: "session_42",
		Status:    jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			Question: "How do I mock Redis?",
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		err := jobStore.SaveJob(ctx, testJob)
		if err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}

		if retrievedJob.JobPayload.Question != testJob.JobPayload.Question {
			t.Errorf("Data mismatch! Got %s, want %s",
				retrievedJob.JobPayload.Question, testJob.JobPayload.Question)
		}
		if retrievedJob.SessionId != testJob.SessionId {
			t.Errorf("Session id lost in roundtrip: got %s", retrievedJob.SessionId)
		}
	})

	t.Run("Ingest outcomes survive the roundtrip", func(t *testing.T) {
		ingestJob := jobModel.Job{
			Id:      "job_ingest_1",
			JobType: jobModel.JobTypeIngest,
			Status:  jobModel.JobStatusComplete,
			JobPayload: jobModel.JobPayload{
				IngestResults: []jobModel.IngestOutcome{
					{DocumentId: "doc-1", Origin: "syllabus.pdf", Stage: "Done", ChunkCount: 12},
				},
			},
		}
		if err := jobStore.SaveJob(ctx, ingestJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
		got, found := jobStore.GetJob(ctx, "job_ingest_1")
		if !found || len(got.JobPayload.IngestResults) != 1 {
			t.Fatalf("Ingest outcomes missing after roundtrip: found=%v", found)
		}
		if got.JobPayload.IngestResults[0].ChunkCount != 12 {
			t.Errorf("Outcome corrupted: %+v", got.JobPayload.IngestResults[0])
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)

		if mr.Exists(jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.TestJobStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	for i := 0; i < workers; i++ {
		go func() {
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
}
