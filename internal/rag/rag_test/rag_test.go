package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/internal/rag"
	"github.com/ibu-sdp/rag-api/internal/rag/answer"
	"github.com/ibu-sdp/rag-api/internal/rag/ingest"
	"github.com/ibu-sdp/rag-api/internal/session"
)

func newTestService(e *MockEmbedder, idx *MockIndex, cache *MockCache, llmMock *MockLLM) (rag.Service, *session.MemoryStore) {
	sessions := session.NewStore()
	a := answer.NewAnswerer(e, idx, cache, llmMock, sessions)
	p := ingest.NewPipeline(e, idx)
	return rag.NewService(a, p), sessions
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		sessionId      string // "new" means create one up front
		setupMocks     func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM)
		expectedStatus jobModel.JobStatus
		expectedCode   int
		expectedAnswer string
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM) {
				l.OnComplete = func(ctx context.Context, system string, prompt string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM) {
				c.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "cached answer",
		},
		{
			name:      "Failure_Unknown_Session",
			sessionId: "no-such-session",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM) {
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusNotFound,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM) {
				idx.OnQuery = func(ctx context.Context, collection string, v []float32, k int) ([]commonModels.SearchHit, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
		},
		{
			name: "Failure_LLM_Generation",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, c *MockCache, l *MockLLM) {
				l.OnComplete = func(ctx context.Context, system string, prompt string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mIdx := &MockIndex{}
			mCache := &MockCache{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mIdx, mCache, mLLM)

			s, _ := newTestService(mEmbed, mIdx, mCache, mLLM)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:        "test-job",
				SessionId: tt.sessionId,
				Status:    jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{
					Question: "test question",
				},
			}

			result := s.ProcessRequest(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}

			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}

			if tt.expectedCode != 0 && result.Error.Code != tt.expectedCode {
				t.Errorf("Error Code got %d, want %d", result.Error.Code, tt.expectedCode)
			}

			if tt.expectedStatus != jobModel.JobStatusError && result.SessionId == "" {
				t.Error("Successful query must carry a session id back on the job")
			}
		})
	}
}

func TestProcessRequest_ExistingSession(t *testing.T) {
	s, sessions := newTestService(&MockEmbedder{}, &MockIndex{}, &MockCache{}, &MockLLM{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	sessionId, _ := sessions.Create(ctx)
	job := jobModel.Job{
		Id:         "test-job",
		SessionId:  sessionId,
		JobPayload: jobModel.JobPayload{Question: "follow-up question"},
	}

	result := s.ProcessRequest(ctx, job)
	if result.Status == jobModel.JobStatusError {
		t.Fatalf("ProcessRequest failed: %+v", result.Error)
	}
	if result.SessionId != sessionId {
		t.Errorf("Existing session id must be preserved, got %s", result.SessionId)
	}

	turns, _ := sessions.History(ctx, sessionId)
	if len(turns) != 2 {
		t.Errorf("Expected question + answer recorded, got %d turns", len(turns))
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	dir := t.TempDir()
	goodFile := filepath.Join(dir, "test_ingest.txt")
	if err := os.WriteFile(goodFile, []byte("test content for ingestion"), 0644); err != nil {
		t.Fatal(err)
	}
	badFile := filepath.Join(dir, "binary.bin")
	if err := os.WriteFile(badFile, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		path           string
		setupMocks     func(e *MockEmbedder, idx *MockIndex)
		expectedStatus jobModel.JobStatus
	}{
		{
			name:           "Ingestion_Success",
			path:           goodFile,
			setupMocks:     func(e *MockEmbedder, idx *MockIndex) {},
			expectedStatus: jobModel.JobStatusQueued,
		},
		{
			name:           "Failure_Unsupported_Type",
			path:           badFile,
			setupMocks:     func(e *MockEmbedder, idx *MockIndex) {},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Batch_Upsert",
			path: goodFile,
			setupMocks: func(e *MockEmbedder, idx *MockIndex) {
				idx.OnUpsertMany = func(ctx context.Context, coll string, entries []commonModels.IndexEntry) error {
					return errors.New("disk full")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mIdx := &MockIndex{}
			tt.setupMocks(mEmbed, mIdx)

			s, _ := newTestService(mEmbed, mIdx, &MockCache{}, &MockLLM{})

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id:     "ingest-job-1",
				Status: jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{
					IngestFileName: filepath.Base(tt.path),
					IngestURL:      tt.path,
				},
			}

			result := s.IngestDocument(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if len(result.JobPayload.IngestResults) != 1 {
				t.Fatalf("Expected one outcome, got %d", len(result.JobPayload.IngestResults))
			}
			outcome := result.JobPayload.IngestResults[0]
			if tt.expectedStatus == jobModel.JobStatusError && outcome.Error == "" {
				t.Error("Failed ingest must carry the error in its outcome")
			}
		})
	}
}

func TestRescanDataDir_EmptyDirCompletes(t *testing.T) {
	s, _ := newTestService(&MockEmbedder{}, &MockIndex{}, &MockCache{}, &MockLLM{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "rescan-trace")

	result := s.RescanDataDir(ctx, jobModel.Job{Id: "rescan-1", Status: jobModel.JobStatusQueued})
	if result.Status == jobModel.JobStatusError {
		t.Fatalf("Rescan over a missing data dir must not fail: %+v", result.Error)
	}
	if len(result.JobPayload.IngestResults) != 0 {
		t.Errorf("Expected no outcomes, got %d", len(result.JobPayload.IngestResults))
	}
}
