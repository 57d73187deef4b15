package answer

import (
	"fmt"
	"strings"

	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/chatModel"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
)

// buildPrompt lays out retrieved chunks first (best match first, the order
// the index returned them), then a bounded slice of conversation history,
// then the question. History is capped by characters with the oldest turns
// dropped first, so a long conversation cannot crowd out the context.
func buildPrompt(question string, hits []commonModels.SearchHit, history []chatModel.Turn) string {
	var sb strings.Builder

	sb.WriteString("Context:\n")
	if len(hits) == 0 {
		sb.WriteString("(no relevant documents found)\n")
	}
	for _, hit := range hits {
		fmt.Fprintf(&sb, "[%s] %s\n", hit.Origin, hit.Text)
	}

	if suffix := historySuffix(history); suffix != "" {
		sb.WriteString("\nConversation so far:\n")
		sb.WriteString(suffix)
	}

	fmt.Fprintf(&sb, "\nUser Question: %s", question)
	return sb.String()
}

func historySuffix(history []chatModel.Turn) string {
	if len(history) == 0 {
		return ""
	}

	// Walk backwards keeping whole turns until the budget runs out.
	budget := config.HistoryCharBudget
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := len(history[i].Role) + len(history[i].Content) + 3
		if budget-cost < 0 {
			break
		}
		budget -= cost
		start = i
	}

	var sb strings.Builder
	for _, turn := range history[start:] {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
	}
	return sb.String()
}
