package adapter

import (
	"fmt"
	"time"

	"github.com/ibu-sdp/rag-api/internal/api"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
		IngestOutcomes:      toIngestOutcomes(job.JobPayload.IngestResults),
	}

	return api.JobResponse{
		Id:        job.Id,
		SessionId: job.SessionId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Sources:  ragData.Sources,
	}
}

func toIngestOutcomes(outcomes []jobModel.IngestOutcome) []api.IngestOutcome {
	if len(outcomes) == 0 {
		return nil
	}
	out := make([]api.IngestOutcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = api.IngestOutcome{
			DocumentId: o.DocumentId,
			Origin:     o.Origin,
			Stage:      o.Stage,
			ChunkCount: o.ChunkCount,
			Skipped:    o.Skipped,
			Error:      o.Error,
		}
	}
	return out
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		SessionId: "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status:              string(api.JobStatusError),
			RAGExternalResponse: ToRAGExternalStatus(jobModel.JobPayload{}),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
