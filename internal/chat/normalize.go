package chat

import (
	"strings"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

// PlaceholderContent replaces empty or whitespace-only completions so callers
// never receive blank output.
const PlaceholderContent = "I apologize, but I wasn't able to generate a response. Please try again."

// normalize converts the raw output of either code path into the uniform
// response shape. The substitution of PlaceholderContent is logged so it stays
// distinguishable from a genuinely short answer.
func (e *Engine) normalize(raw *models.ProviderResponse, model string, citations []string) *models.ChatResponse {
	content := raw.Content
	if strings.TrimSpace(content) == "" {
		e.logger.Warn("substituting placeholder for empty completion: model=%s finish_reason=%q tool_calls=%d",
			model, raw.FinishReason, len(raw.ToolCalls))
		content = PlaceholderContent
	}

	finishReason := raw.FinishReason
	if finishReason == "" {
		finishReason = "stop"
	}

	resolvedModel := raw.Model
	if resolvedModel == "" {
		resolvedModel = model
	}

	return &models.ChatResponse{
		Content:      content,
		Usage:        raw.Usage,
		FinishReason: finishReason,
		Model:        resolvedModel,
		Citations:    mergeCitations(raw.Citations, citations),
	}
}

// mergeCitations concatenates citation lists preserving order, dropping
// duplicates and empty entries.
func mergeCitations(lists ...[]string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, url := range list {
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			merged = append(merged, url)
		}
	}
	return merged
}
