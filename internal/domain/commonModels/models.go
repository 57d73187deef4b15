package commonModels

import "time"

// Document is the unit handed over by text acquisition. It is immutable once
// built - re-ingesting changed content produces a new Id and supersedes the
// old entry in the index.
type Document struct {
	Id                  string    `json:"resource_id"`
	Origin              string    `json:"origin"`
	Text                string    `json:"resource_text"`
	Size                int       `json:"file_size"`
	ContentType         DocType   `json:"content_type"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
}

// Chunk is a bounded substring of a document used as a retrieval unit.
// ChunkId is derived from the parent id plus the chunk text, so the same
// body under two parents gets two ids.
type Chunk struct {
	ChunkId string `json:"chunk_id"`
	DocId   string `json:"resource_id"`
	Text    string `json:"chunk_text"`
	Ordinal int    `json:"chunk_index"`
	Origin  string `json:"origin"`
}

// IndexEntry is the unit stored in the vector index. The backing store owns
// it after upsert, we keep no copy. Metadata is an opaque JSON string the
// way the index expects it.
type IndexEntry struct {
	Id        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Text      string    `json:"text"`
	Origin    string    `json:"origin"`
	Ordinal   int       `json:"ordinal"`
	ParentId  string    `json:"parent_id"`
	Metadata  string    `json:"metadata"`
}

// SearchHit is one result of a similarity query, highest score first.
type SearchHit struct {
	Id       string
	Score    float32
	Text     string
	Origin   string
	Ordinal  int
	ParentId string
	Metadata string
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
