package contentid

import (
	"testing"

	"github.com/google/uuid"
)

func TestForDocument_Deterministic(t *testing.T) {
	a := ForDocument("The IBU campus is in Sarajevo.")
	b := ForDocument("The IBU campus is in Sarajevo.")
	if a != b {
		t.Errorf("Same text produced different ids: %s vs %s", a, b)
	}

	c := ForDocument("The IBU campus is in Sarajevo!")
	if a == c {
		t.Error("Different text produced the same id")
	}

	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("Document id is not a valid UUID: %s", a)
	}
}

func TestForChunk_ParentBound(t *testing.T) {
	parentA := ForDocument("document A")
	parentB := ForDocument("document B")

	chunkUnderA := ForChunk(parentA, "shared chunk body")
	chunkUnderB := ForChunk(parentB, "shared chunk body")
	if chunkUnderA == chunkUnderB {
		t.Error("Identical chunk body under two parents must produce two ids")
	}

	again := ForChunk(parentA, "shared chunk body")
	if chunkUnderA != again {
		t.Errorf("Re-deriving a chunk id changed it: %s vs %s", chunkUnderA, again)
	}

	if _, err := uuid.Parse(chunkUnderA); err != nil {
		t.Errorf("Chunk id is not a valid UUID: %s", chunkUnderA)
	}
}

func TestNamespaces_Disjoint(t *testing.T) {
	// A document and a chunk derived from the same bytes must not collide.
	doc := ForDocument("same bytes")
	chunk := ForChunk("", "same bytes")
	if doc == chunk {
		t.Error("Document and chunk namespaces overlap")
	}
}
