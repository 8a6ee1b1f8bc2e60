package mocks

import (
	"context"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/websearch"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	NameValue          string
	ModelsValue        []string
	CompleteFunc       func(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error)
	CompleteStreamFunc func(ctx context.Context, req *models.ProviderRequest) (<-chan models.StreamEvent, error)
}

func (m *MockProvider) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *MockProvider) Models() []string {
	if len(m.ModelsValue) > 0 {
		return m.ModelsValue
	}
	return []string{"mock-model"}
}

func (m *MockProvider) Complete(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &models.ProviderResponse{Content: "mock response", FinishReason: "stop"}, nil
}

func (m *MockProvider) CompleteStream(ctx context.Context, req *models.ProviderRequest) (<-chan models.StreamEvent, error) {
	if m.CompleteStreamFunc != nil {
		return m.CompleteStreamFunc(ctx, req)
	}
	ch := make(chan models.StreamEvent)
	close(ch)
	return ch, nil
}

// MockSearcher implements the Searcher interface for testing
type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error)
}

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, maxResults)
	}
	return nil, nil
}
