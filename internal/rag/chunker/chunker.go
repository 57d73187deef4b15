package chunker

import (
	"fmt"
	"strings"

	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
)

// Separators ordered from "best" to "worst" for semantic meaning.
// The empty string means a hard character cut.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Split cuts text into an ordered sequence of chunks of at most size
// characters, consecutive chunks sharing up to overlap characters of
// trailing context. It prefers paragraph, then sentence, then word
// boundaries before falling back to a hard cut. Identical input always
// yields an identical sequence - chunk ids are derived from the output,
// so the splitter must be deterministic.
func Split(text string, size int, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", commonModels.ErrInvalidChunkParams, size, overlap)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}, nil
	}
	if len(trimmed) <= size {
		return []string{trimmed}, nil
	}

	return split(text, size, overlap, separators), nil
}

func split(text string, size int, overlap int, seps []string) []string {
	// Pick the first separator that actually occurs in this piece of text.
	sep := ""
	var rest []string
	for i, s := range seps {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = hardCut(text, size)
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var pending []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if len(piece) <= size {
			pending = append(pending, piece)
			continue
		}
		// Oversized piece: flush what we have, then descend a separator level.
		if len(pending) > 0 {
			chunks = append(chunks, merge(pending, sep, size, overlap)...)
			pending = nil
		}
		chunks = append(chunks, split(piece, size, overlap, rest)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, merge(pending, sep, size, overlap)...)
	}
	return chunks
}

// merge greedily joins pieces back with their separator until the next
// piece would push the chunk past size. On flush it keeps at most overlap
// trailing characters as the start of the next chunk.
func merge(pieces []string, sep string, size int, overlap int) []string {
	sepLen := len(sep)
	var chunks []string
	var window []string
	total := 0

	for _, piece := range pieces {
		add := len(piece)
		if len(window) > 0 {
			add += sepLen
		}
		if total+add > size && len(window) > 0 {
			if c := strings.TrimSpace(strings.Join(window, sep)); c != "" {
				chunks = append(chunks, c)
			}
			for len(window) > 0 && (total > overlap || total+len(piece)+sepLen > size) {
				total -= len(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
		if len(window) > 1 {
			total += sepLen
		}
	}

	if c := strings.TrimSpace(strings.Join(window, sep)); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

func hardCut(text string, size int) []string {
	var out []string
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
