package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/logger"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/providers"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/websearch"
)

// Engine routes normalized chat requests to the configured providers, runs the
// tool-call loop, and normalizes the result. It holds no per-request state;
// concurrent turns are independent.
type Engine struct {
	registry *providers.Registry
	searcher websearch.Searcher
	logger   *logger.Logger
	now      func() time.Time
}

// NewEngine creates a new chat engine. searcher may be nil when no search
// capability is configured; web_search tool calls then degrade to an
// in-conversation error message.
func NewEngine(registry *providers.Registry, searcher websearch.Searcher) *Engine {
	return &Engine{
		registry: registry,
		searcher: searcher,
		logger:   logger.GetLogger().WithComponent("chat_engine"),
		now:      time.Now,
	}
}

// Complete processes one caller turn: compose the system prompt, build the
// provider parameters, perform the upstream call, run at most one tool
// follow-up, and normalize the reply.
func (e *Engine) Complete(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	prov, model, err := e.route(req)
	if err != nil {
		return nil, err
	}

	params := BuildParams(model, req.UseWebSearch, req.MaxTokens)
	convo := e.composeConversation(prov.Name(), model, req, req.UseWebSearch)

	e.logger.Debug("completing turn: provider=%s model=%s class=%s messages=%d",
		prov.Name(), model, params.Class, len(convo))

	resp, err := prov.Complete(ctx, &models.ProviderRequest{Messages: convo, Params: params})
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", prov.Name(), err)
	}

	var citations []string
	if len(resp.ToolCalls) > 0 {
		resp, citations, err = e.runToolFollowUp(ctx, prov, convo, resp, model, req.MaxTokens)
		if err != nil {
			return nil, err
		}
	}

	return e.normalize(resp, model, citations), nil
}

// CompleteStream processes one caller turn in streaming mode. The returned
// channel is single-consumption; consumers cancel by abandoning it (the
// forwarding goroutine exits on ctx cancellation). Tool declarations are not
// attached in streaming mode.
func (e *Engine) CompleteStream(ctx context.Context, req *models.ChatRequest) (<-chan models.StreamEvent, error) {
	prov, model, err := e.route(req)
	if err != nil {
		return nil, err
	}

	params := BuildParams(model, false, req.MaxTokens)
	convo := e.composeConversation(prov.Name(), model, req, false)

	e.logger.Debug("streaming turn: provider=%s model=%s class=%s messages=%d",
		prov.Name(), model, params.Class, len(convo))

	events, err := prov.CompleteStream(ctx, &models.ProviderRequest{Messages: convo, Params: params})
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", prov.Name(), err)
	}
	return events, nil
}

// route resolves the provider (falling back to the default for empty or
// unknown identifiers) and the effective model.
func (e *Engine) route(req *models.ChatRequest) (providers.Provider, string, error) {
	if req.Provider != "" && !e.registry.Has(req.Provider) {
		e.logger.Warn("unknown provider %q requested, falling back to default", req.Provider)
	}

	prov, err := e.registry.Resolve(req.Provider)
	if err != nil {
		return nil, "", err
	}

	model := req.Model
	if model == "" {
		supported := prov.Models()
		if len(supported) == 0 {
			return nil, "", fmt.Errorf("provider %s has no models configured", prov.Name())
		}
		model = supported[0]
	}

	return prov, model, nil
}

// composeConversation prepends the composed system message to the caller's
// messages, preserving their ordering. Caller state is never mutated.
func (e *Engine) composeConversation(provider, model string, req *models.ChatRequest, webSearch bool) []models.Message {
	convo := make([]models.Message, 0, len(req.Messages)+1)
	convo = append(convo, models.Message{
		Role:    models.RoleSystem,
		Content: ComposeSystemPrompt(provider, model, req.ResponseStyle, webSearch, e.now()),
	})
	convo = append(convo, req.Messages...)
	return convo
}

// runToolFollowUp executes the tool-call loop: append the assistant turn and
// all tool results, then issue exactly one follow-up call. The follow-up
// re-applies the model-class parameter rules but never re-attaches tool
// declarations, so the loop runs at most one extra round-trip.
func (e *Engine) runToolFollowUp(
	ctx context.Context,
	prov providers.Provider,
	convo []models.Message,
	resp *models.ProviderResponse,
	model string,
	maxTokens int,
) (*models.ProviderResponse, []string, error) {
	e.logger.Debug("executing %d tool call(s)", len(resp.ToolCalls))

	convo = append(convo, models.Message{
		Role:      models.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	results, citations := e.executeToolCalls(ctx, resp.ToolCalls)
	convo = append(convo, results...)

	followUpParams := BuildParams(model, false, maxTokens)
	followUp, err := prov.Complete(ctx, &models.ProviderRequest{Messages: convo, Params: followUpParams})
	if err != nil {
		return nil, nil, fmt.Errorf("provider %s follow-up: %w", prov.Name(), err)
	}

	return followUp, citations, nil
}
