package chat

import (
	"encoding/json"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

const (
	// defaultMaxTokens applies when the caller's requested maximum is unset or
	// non-positive, before any capping rule.
	defaultMaxTokens = 8000
	// restrictedTokenCeiling caps the output tokens of restricted-sampling
	// models regardless of the caller's request.
	restrictedTokenCeiling = 4000
	defaultTemperature     = 0.7
)

// WebSearchToolName is the only tool the engine executes.
const WebSearchToolName = "web_search"

var webSearchTool = models.ToolDefinition{
	Name:        WebSearchToolName,
	Description: "Search the web for up-to-date information. Use for current events, real-time data, or anything that may have changed since training.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"},
			"max_results": {"type": "integer", "description": "Maximum number of results to return"}
		},
		"required": ["query"]
	}`),
}

// BuildParams translates (model, web-search flag, requested max tokens) into a
// provider-ready parameter set plus the resolved model class.
//
// Restricted models get the capped max_completion_tokens limit and no sampling
// temperature or tools; standard models get the fixed default temperature, the
// caller's limit, and the tool declaration when web search is enabled.
// Alternate-class models carry only the model and output limit; the responses
// path ignores the rest.
func BuildParams(model string, useWebSearch bool, maxTokens int) models.Params {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := models.Params{
		Model: model,
		Class: models.ClassifyModel(model),
	}

	switch params.Class {
	case models.ClassRestricted:
		if maxTokens > restrictedTokenCeiling {
			maxTokens = restrictedTokenCeiling
		}
		params.MaxCompletionTokens = maxTokens
	case models.ClassAlternate:
		params.MaxTokens = maxTokens
	default:
		params.Temperature = defaultTemperature
		params.HasTemperature = true
		params.MaxTokens = maxTokens
		if useWebSearch {
			params.Tools = []models.ToolDefinition{webSearchTool}
			params.ToolChoice = "auto"
		}
	}

	return params
}
