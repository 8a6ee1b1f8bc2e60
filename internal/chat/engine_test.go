package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/logger"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/mocks"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/providers"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/websearch"
)

func init() {
	logger.InitLogger(logger.INFO, "test")
}

func newTestEngine(t *testing.T, prov providers.Provider, searcher websearch.Searcher) *Engine {
	t.Helper()
	registry := providers.NewRegistry("openai")
	require.NoError(t, registry.Register(prov))
	return NewEngine(registry, searcher)
}

func userRequest(text string) *models.ChatRequest {
	return &models.ChatRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: text}},
		Model:    "gpt-4o",
	}
}

func TestEngine_Complete_PrependsSystemMessage(t *testing.T) {
	var seen []models.Message
	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			seen = req.Messages
			return &models.ProviderResponse{Content: "hi", FinishReason: "stop"}, nil
		},
	}

	engine := newTestEngine(t, prov, nil)
	resp, err := engine.Complete(context.Background(), userRequest("hello"))

	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	require.Len(t, seen, 2)
	assert.Equal(t, models.RoleSystem, seen[0].Role)
	assert.Contains(t, seen[0].Content, "gpt-4o")
	assert.Equal(t, models.RoleUser, seen[1].Role)
}

func TestEngine_ToolLoop_SingleFollowUp(t *testing.T) {
	calls := 0
	var followUpReq *models.ProviderRequest

	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			calls++
			if calls == 1 {
				return &models.ProviderResponse{
					FinishReason: "tool_calls",
					ToolCalls: []models.ToolCall{
						{ID: "call_1", Name: WebSearchToolName, Arguments: `{"query":"latest go release"}`},
					},
				}, nil
			}
			followUpReq = req
			return &models.ProviderResponse{Content: "Go 1.24 is out.", FinishReason: "stop"}, nil
		},
	}
	searcher := &mocks.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
			assert.Equal(t, "latest go release", query)
			return []websearch.Result{
				{Title: "Go 1.24 released", URL: "https://go.dev/blog/go1.24", Description: "Release notes"},
			}, nil
		},
	}

	engine := newTestEngine(t, prov, searcher)
	req := &models.ChatRequest{
		Messages:     []models.Message{{Role: models.RoleUser, Content: "what is the latest go release?"}},
		Model:        "gpt-4o",
		UseWebSearch: true,
	}
	resp, err := engine.Complete(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "exactly one additional upstream call")
	assert.Equal(t, "Go 1.24 is out.", resp.Content)
	assert.Equal(t, []string{"https://go.dev/blog/go1.24"}, resp.Citations)

	// Follow-up conversation: system + user + assistant tool turn + tool result.
	require.NotNil(t, followUpReq)
	assert.Len(t, followUpReq.Messages, 4)
	assert.Empty(t, followUpReq.Params.Tools, "follow-up must not re-attach tool declarations")

	toolMsg := followUpReq.Messages[3]
	assert.Equal(t, models.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "go.dev")
}

func TestEngine_ToolLoop_ExecutionFailureDegrades(t *testing.T) {
	calls := 0
	var followUpReq *models.ProviderRequest

	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			calls++
			if calls == 1 {
				return &models.ProviderResponse{
					FinishReason: "tool_calls",
					ToolCalls: []models.ToolCall{
						{ID: "call_1", Name: WebSearchToolName, Arguments: `{"query":"anything"}`},
					},
				}, nil
			}
			followUpReq = req
			return &models.ProviderResponse{Content: "search is down, sorry", FinishReason: "stop"}, nil
		},
	}
	searcher := &mocks.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
			return nil, errors.New("upstream search unavailable")
		},
	}

	engine := newTestEngine(t, prov, searcher)
	resp, err := engine.Complete(context.Background(), userRequest("look it up"))

	require.NoError(t, err, "tool failure must not abort the turn")
	assert.Equal(t, "search is down, sorry", resp.Content)

	require.NotNil(t, followUpReq)
	toolMsg := followUpReq.Messages[len(followUpReq.Messages)-1]
	assert.Equal(t, models.RoleTool, toolMsg.Role)
	assert.NotEmpty(t, toolMsg.Content)
	assert.Contains(t, toolMsg.Content, "upstream search unavailable")
}

func TestEngine_ToolLoop_MalformedArgumentsDegrade(t *testing.T) {
	calls := 0
	var followUpReq *models.ProviderRequest

	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			calls++
			if calls == 1 {
				return &models.ProviderResponse{
					FinishReason: "tool_calls",
					ToolCalls: []models.ToolCall{
						{ID: "call_1", Name: WebSearchToolName, Arguments: `[1,2,3]`},
					},
				}, nil
			}
			followUpReq = req
			return &models.ProviderResponse{Content: "done", FinishReason: "stop"}, nil
		},
	}

	engine := newTestEngine(t, prov, &mocks.MockSearcher{})
	_, err := engine.Complete(context.Background(), userRequest("search please"))

	require.NoError(t, err)
	require.NotNil(t, followUpReq)
	toolMsg := followUpReq.Messages[len(followUpReq.Messages)-1]
	assert.NotEmpty(t, toolMsg.Content)
	assert.Contains(t, toolMsg.Content, "invalid arguments")
}

func TestEngine_ToolLoop_UnsupportedToolAnswered(t *testing.T) {
	calls := 0
	var followUpReq *models.ProviderRequest

	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			calls++
			if calls == 1 {
				return &models.ProviderResponse{
					FinishReason: "tool_calls",
					ToolCalls: []models.ToolCall{
						{ID: "call_1", Name: "file_write", Arguments: `{"path":"/etc/passwd"}`},
					},
				}, nil
			}
			followUpReq = req
			return &models.ProviderResponse{Content: "I can't do that.", FinishReason: "stop"}, nil
		},
	}

	engine := newTestEngine(t, prov, &mocks.MockSearcher{})
	_, err := engine.Complete(context.Background(), userRequest("write a file"))

	require.NoError(t, err)
	require.NotNil(t, followUpReq)
	toolMsg := followUpReq.Messages[len(followUpReq.Messages)-1]
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "Unsupported tool")
}

func TestEngine_EmptyContentSubstitutesPlaceholder(t *testing.T) {
	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			return &models.ProviderResponse{Content: "", FinishReason: "stop"}, nil
		},
	}

	engine := newTestEngine(t, prov, nil)
	resp, err := engine.Complete(context.Background(), userRequest("hello"))

	require.NoError(t, err)
	assert.Equal(t, PlaceholderContent, resp.Content)
}

func TestEngine_UnknownProviderFallsBackToDefault(t *testing.T) {
	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			return &models.ProviderResponse{Content: "served by default", FinishReason: "stop"}, nil
		},
	}

	engine := newTestEngine(t, prov, nil)
	req := userRequest("hello")
	req.Provider = "gemini"
	resp, err := engine.Complete(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "served by default", resp.Content)
}

func TestEngine_ProviderErrorSurfaces(t *testing.T) {
	prov := &mocks.MockProvider{
		NameValue: "openai",
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			return nil, errors.New("connection refused")
		},
	}

	engine := newTestEngine(t, prov, nil)
	_, err := engine.Complete(context.Background(), userRequest("hello"))

	assert.ErrorContains(t, err, "connection refused")
}

func TestEngine_DefaultModelFromProvider(t *testing.T) {
	prov := &mocks.MockProvider{
		NameValue:   "openai",
		ModelsValue: []string{"gpt-4o-mini", "gpt-4o"},
		CompleteFunc: func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
			assert.Equal(t, "gpt-4o-mini", req.Params.Model)
			return &models.ProviderResponse{Content: "ok", FinishReason: "stop"}, nil
		},
	}

	engine := newTestEngine(t, prov, nil)
	req := &models.ChatRequest{Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}}}
	_, err := engine.Complete(context.Background(), req)

	require.NoError(t, err)
}
