package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/rag/chunker"
	"github.com/ibu-sdp/rag-api/internal/rag/contentid"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding"
	"github.com/ibu-sdp/rag-api/internal/rag/vectorDB"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

// Pipeline runs documents through chunk -> embed -> index. Ids are derived
// from content, so re-running the same document is a no-op unless force is
// set or the bytes changed.
type Pipeline struct {
	Embedder     embedding.Embedder
	Index        vectorDB.Index
	ChunkSize    int
	ChunkOverlap int

	logger *logger_i.Logger
}

// Result describes one document's trip through the pipeline. Stage records
// how far the document got; on failure Err holds what stopped it.
type Result struct {
	DocumentId string
	Origin     string
	Stage      commonModels.IngestStage
	ChunkCount int
	Skipped    bool
	Err        error
}

func NewPipeline(embedder embedding.Embedder, index vectorDB.Index) *Pipeline {
	return &Pipeline{
		Embedder:     embedder,
		Index:        index,
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		logger:       logger_i.NewLogger("ingest_pipeline"),
	}
}

func (p *Pipeline) IngestText(ctx context.Context, text string, origin string, force bool) Result {
	log := p.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "origin", origin)

	res := Result{Origin: origin, Stage: commonModels.StageReceived}
	if strings.TrimSpace(text) == "" {
		res.Stage = commonModels.StageFailed
		res.Err = &commonModels.IngestionError{Origin: origin, Stage: commonModels.StageReceived, Err: commonModels.ErrEmptyDocument}
		return res
	}

	docId := contentid.ForDocument(text)
	res.DocumentId = docId
	log = log.With("docId", docId)

	if err := p.ensureCollections(ctx); err != nil {
		return fail(res, err)
	}

	if !force {
		indexed, err := p.Index.HasEntry(ctx, config.ResourceCollection, docId)
		if err != nil {
			return fail(res, err)
		}
		if indexed {
			log.Info("Document already indexed, skipping")
			res.Skipped = true
			res.Stage = commonModels.StageDone
			return res
		}
	}

	chunks, err := chunker.Split(text, p.ChunkSize, p.ChunkOverlap)
	if err != nil {
		return fail(res, err)
	}
	res.Stage = commonModels.StageChunked
	res.ChunkCount = len(chunks)
	log.Debug("Document chunked", "chunks", len(chunks))

	docVector, err := p.Embedder.GetEmbedding(ctx, text)
	if err != nil {
		return fail(res, err)
	}
	chunkVectors, err := p.Embedder.BatchEmbedding(ctx, chunks)
	if err != nil {
		return fail(res, err)
	}
	if len(chunkVectors) != len(chunks) {
		return fail(res, commonModels.ErrEmbeddingCountMismatch)
	}
	res.Stage = commonModels.StageEmbedded

	meta := buildMetadata(origin)
	docEntry := commonModels.IndexEntry{
		Id:        docId,
		Embedding: docVector,
		Text:      text,
		Origin:    origin,
		Metadata:  meta,
	}
	if err := p.Index.UpsertOne(ctx, config.ResourceCollection, docEntry); err != nil {
		return fail(res, err)
	}

	chunkEntries := make([]commonModels.IndexEntry, len(chunks))
	for i, chunkText := range chunks {
		chunkEntries[i] = commonModels.IndexEntry{
			Id:        contentid.ForChunk(docId, chunkText),
			Embedding: chunkVectors[i],
			Text:      chunkText,
			Origin:    origin,
			Ordinal:   i,
			ParentId:  docId,
			Metadata:  meta,
		}
	}
	if err := p.Index.UpsertMany(ctx, config.ChunkCollection, chunkEntries); err != nil {
		return fail(res, err)
	}
	res.Stage = commonModels.StageIndexed

	log.Info("Document indexed", "chunks", len(chunks))
	res.Stage = commonModels.StageDone
	return res
}

// IngestFile extracts the file's text and ingests it. The origin recorded in
// the index is the file name, not the full path.
func (p *Pipeline) IngestFile(ctx context.Context, path string, force bool) Result {
	origin := baseName(path)
	text, err := extractText(path)
	if err != nil {
		return Result{
			Origin: origin,
			Stage:  commonModels.StageFailed,
			Err:    &commonModels.IngestionError{Origin: origin, Stage: commonModels.StageReceived, Err: err},
		}
	}
	return p.IngestText(ctx, text, origin, force)
}

// IngestAll fans the paths out over a bounded number of workers. One failing
// document never aborts the batch; its Result carries the error instead.
func (p *Pipeline) IngestAll(ctx context.Context, paths []string, force bool) []Result {
	results := make([]Result, len(paths))

	sem := make(chan struct{}, config.IngestConcurrency)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.IngestFile(ctx, path, force)
		}(i, path)
	}
	wg.Wait()
	return results
}

func (p *Pipeline) ensureCollections(ctx context.Context) error {
	dim := p.Embedder.Dimension()
	if err := p.Index.EnsureCollection(ctx, config.ResourceCollection, dim); err != nil {
		return err
	}
	return p.Index.EnsureCollection(ctx, config.ChunkCollection, dim)
}

func fail(res Result, err error) Result {
	stage := res.Stage
	res.Stage = commonModels.StageFailed
	res.Err = &commonModels.IngestionError{DocumentId: res.DocumentId, Origin: res.Origin, Stage: stage, Err: err}
	return res
}

func buildMetadata(origin string) string {
	raw, err := json.Marshal(map[string]any{
		"origin":      origin,
		"ingested_at": time.Now().Unix(),
	})
	if err != nil {
		return "{}"
	}
	return string(raw)
}
