package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQuadrantClient(ctx context.Context) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			quadrantInstance = res
			initCacheCollection(ctx, quadrantInstance)
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient() *qdrant.Client {

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate Qdrant client", "error", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, collectionName string, dimension int32) error {
	return createCollection(ctx, db.QObj, collectionName, dimension)
}

func (db *ClientHolder) UpsertOne(ctx context.Context, collectionName string, entry commonModels.IndexEntry) error {
	return db.upsert(ctx, collectionName, []commonModels.IndexEntry{entry})
}

func (db *ClientHolder) UpsertMany(ctx context.Context, collectionName string, entries []commonModels.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return db.upsert(ctx, collectionName, entries)
}

func (db *ClientHolder) upsert(ctx context.Context, collectionName string, entries []commonModels.IndexEntry) error {
	qdrantPoints := make([]*qdrant.PointStruct, len(entries))

	for i, entry := range entries {
		qdrantPoints[i] = &qdrant.PointStruct{
			// Converts my UUID string to Qdrant's ID format
			Id: qdrant.NewID(entry.Id),

			// Converts []float32 to Qdrant's Vector format
			Vectors: qdrant.NewVectors(entry.Embedding...),

			Payload: qdrant.NewValueMap(map[string]any{
				"text":      entry.Text,
				"origin":    entry.Origin,
				"ordinal":   int64(entry.Ordinal),
				"parent_id": entry.ParentId,
				"metadata":  entry.Metadata,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})

	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Query(ctx context.Context, collectionName string, vector []float32, k int) ([]commonModels.SearchHit, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, &commonModels.TransientError{Op: "qdrant query", Err: err}
	}

	hits := make([]commonModels.SearchHit, 0, len(result))
	for _, hit := range result {
		hits = append(hits, commonModels.SearchHit{
			Id:       hit.Id.GetUuid(),
			Score:    hit.Score,
			Text:     hit.Payload["text"].GetStringValue(),
			Origin:   hit.Payload["origin"].GetStringValue(),
			Ordinal:  int(hit.Payload["ordinal"].GetIntegerValue()),
			ParentId: hit.Payload["parent_id"].GetStringValue(),
			Metadata: hit.Payload["metadata"].GetStringValue(),
		})
	}

	loggr.Debug("Found matches", "count", len(hits))
	return hits, nil
}

func (db *ClientHolder) HasEntry(ctx context.Context, collectionName string, id string) (bool, error) {
	points, err := db.QObj.Get(ctx, &qdrant.GetPoints{
		CollectionName: collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
	})
	if err != nil {
		return false, &commonModels.TransientError{Op: "qdrant get", Err: err}
	}
	return len(points) > 0, nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension int32) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
