package contentid

import "github.com/google/uuid"

// Ids are content-derived so re-ingesting unchanged text is a pure upsert:
// same bytes, same id, same index entry. We emit name-based UUIDs (SHA-1
// digest folded into RFC 4122 form) because the vector index only accepts
// UUID or integer point ids. Collisions at corpus scale are negligible and
// the mapping is identical across runs and platforms.

var (
	documentNamespace = uuid.MustParse("8f2a1c60-7c31-45e2-9a4e-3d2b6f3d9b10")
	chunkNamespace    = uuid.MustParse("c4e9d0b2-1b77-4d28-8a55-60f1a2ee7c44")
)

// ForDocument derives the document id from the full document text.
func ForDocument(text string) string {
	return uuid.NewSHA1(documentNamespace, []byte(text)).String()
}

// ForChunk binds the parent document id into the chunk id, so an identical
// chunk body under two different parents still gets two distinct ids.
func ForChunk(parentDocId string, chunkText string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(parentDocId+chunkText)).String()
}
