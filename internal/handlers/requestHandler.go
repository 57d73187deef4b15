package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ibu-sdp/rag-api/internal/adapter"
	"github.com/ibu-sdp/rag-api/internal/adapter/utils"
	"github.com/ibu-sdp/rag-api/internal/api"
	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/jobModel"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var logRH *logger_i.Logger

type newJobData struct {
	id             string
	sessionId      string
	message        string
	traceId        string
	jobType        jobModel.JobType
	documentName   string
	documentSource string
	force          bool
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatHandler accepts a question, queues a background query job and returns
// the job id to poll. A supplied session id must already exist; leaving it
// empty starts a new conversation.
func ChatHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {
		traceId := request.Context().Value(config.TRACE_ID_KEY).(string)

		var requestData api.ChatRequest
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logRH.Error("Couldn't close the Chat handler reader", "err", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.Message == "" {
			logRH.Warn("Bad Chat Request: ", "error:", err, "request data:", requestData)
			WriteErrorResponse(w, http.StatusBadRequest, requestData.SessionID, "Bad Request")
			return
		}

		if !SessionKnown(requestData.SessionID, traceId) {
			logRH.Warn("Unknown session id", "sessionId", requestData.SessionID)
			WriteErrorResponse(w, http.StatusNotFound, requestData.SessionID, "Unknown session id")
			return
		}

		newJob := newJobData{
			id:        utils.GetNewUUID(),
			sessionId: requestData.SessionID,
			message:   requestData.Message,
			traceId:   traceId,
			jobType:   jobModel.JobTypeQuery,
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

// GetStatusHandler retrieves the current status of a job by its id.
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		//use chi get the url id
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// PostIngestHandler receives a file via multipart/form-data, parks it in the
// data directory and queues an ingestion job. Passing force=true re-indexes
// even when the content is already known.
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		const maxUploadSize = 32 << 20 //32mb
		err := r.ParseMultipartForm(maxUploadSize)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		docName := r.FormValue("document_name")
		if docName == "" {
			WriteErrorResponse(w, http.StatusBadRequest, "", "document_name is required")
			return
		}

		fileReader, fileMetadata, err := r.FormFile("document")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, docName, "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		destPath := filepath.Join(targetDir, filename)
		destinationFileWriter, err := os.Create(destPath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
			return
		}

		newJob := newJobData{
			id:             utils.GetNewUUID(),
			traceId:        r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:        jobModel.JobTypeIngest,
			documentName:   docName,
			documentSource: destPath,
			force:          r.FormValue("force") == "true",
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// PostRescanHandler queues a job that re-ingests everything in the data
// directory. Content-derived ids make this cheap for unchanged files.
func PostRescanHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		var requestData api.RescanRequest
		if r.Body != nil {
			// An empty body means a plain rescan, not an error.
			_ = json.NewDecoder(r.Body).Decode(&requestData)
			_ = r.Body.Close()
		}

		newJob := newJobData{
			id:      utils.GetNewUUID(),
			traceId: r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType: jobModel.JobTypeRescan,
			force:   requestData.Force,
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}
