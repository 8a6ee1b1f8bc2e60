package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/websearch"
)

const defaultSearchResults = 5

type searchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// executeToolCalls runs every tool call of one assistant turn and returns the
// tool-result messages in call order, plus the citation URLs gathered from
// search results. A result message is always appended per call, even on
// failure, so the model can react to what happened.
func (e *Engine) executeToolCalls(ctx context.Context, calls []models.ToolCall) ([]models.Message, []string) {
	results := make([]models.Message, 0, len(calls))
	var citations []string

	for _, call := range calls {
		content, urls := e.executeToolCall(ctx, call)
		results = append(results, models.Message{
			Role:       models.RoleTool,
			Content:    content,
			ToolCallID: call.ID,
		})
		citations = append(citations, urls...)
	}

	return results, citations
}

// executeToolCall never fails; every failure mode becomes descriptive text
// content inside the tool-result message.
func (e *Engine) executeToolCall(ctx context.Context, call models.ToolCall) (string, []string) {
	if call.Name != WebSearchToolName {
		e.logger.Warn("model requested unsupported tool %q", call.Name)
		return fmt.Sprintf("Unsupported tool: %q. Only web_search is available.", call.Name), nil
	}

	args, err := parseSearchArgs(call.Arguments)
	if err != nil {
		e.logger.Warn("invalid web_search arguments %q: %v", call.Arguments, err)
		return fmt.Sprintf("web_search failed: invalid arguments: %v", err), nil
	}

	if e.searcher == nil {
		return "web_search failed: no search capability is configured.", nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}

	results, err := e.searcher.Search(ctx, args.Query, maxResults)
	if err != nil {
		e.logger.WithError(err).Warn("web_search execution failed for query %q", args.Query)
		return fmt.Sprintf("web_search failed: %v", err), nil
	}

	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}

	return websearch.RenderResults(args.Query, results), urls
}

// parseSearchArgs decodes the JSON argument blob, attempting a repair pass on
// malformed payloads before giving up.
func parseSearchArgs(raw string) (searchArgs, error) {
	var args searchArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return args, err
		}
		if err := json.Unmarshal([]byte(repaired), &args); err != nil {
			return args, err
		}
	}
	if strings.TrimSpace(args.Query) == "" {
		return args, errors.New("missing query")
	}
	return args, nil
}
