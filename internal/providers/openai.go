package providers

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

// OpenAIProvider implements Provider for the OpenAI backend. Standard and
// restricted models go through the chat-completions surface; alternate-class
// models are rerouted to the responses endpoint.
type OpenAIProvider struct {
	config    ClientConfig
	client    *openai.Client
	responses *responsesClient
}

// NewOpenAIProvider creates a new OpenAI provider client
func NewOpenAIProvider(config ClientConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIBase != "" {
		base := config.APIBase
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			base = "https://" + base
		}
		clientConfig.BaseURL = base
	}

	if len(config.Models) == 0 {
		config.Models = []string{"gpt-4o", "gpt-4o-mini", "gpt-5", "gpt-5-pro", "o3-mini", "o3-pro"}
	}

	return &OpenAIProvider{
		config:    config,
		client:    openai.NewClientWithConfig(clientConfig),
		responses: newResponsesClient(config, clientConfig.BaseURL),
	}
}

func (p *OpenAIProvider) Name() string { return NameOpenAI }

func (p *OpenAIProvider) Models() []string {
	result := make([]string, len(p.config.Models))
	copy(result, p.config.Models)
	return result
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
	if req.Params.Class == models.ClassAlternate {
		return p.responses.Complete(ctx, req)
	}

	resp, err := p.client.CreateChatCompletion(ctx, buildChatCompletionRequest(req))
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	out := &models.ProviderResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (p *OpenAIProvider) CompleteStream(ctx context.Context, req *models.ProviderRequest) (<-chan models.StreamEvent, error) {
	if req.Params.Class == models.ClassAlternate {
		// The responses endpoint has no incremental delivery; run the one-shot
		// call and replay it as a minimal event sequence.
		return p.responses.CompleteStream(ctx, req)
	}

	openaiReq := buildChatCompletionRequest(req)
	openaiReq.Stream = true
	openaiReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}

	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)
		defer stream.Close()

		var state openaiStreamState
		for {
			select {
			case <-ctx.Done():
				return
			default:
				resp, err := stream.Recv()
				if err == io.EOF {
					events <- models.StreamEvent{
						Type:         models.StreamDone,
						FinishReason: state.finishReason,
						Usage:        state.usage,
					}
					return
				}
				if err != nil {
					// Upstream broke mid-stream; the consumer sees the channel
					// close without a done event.
					return
				}
				for _, ev := range translateChatCompletionChunk(resp, &state) {
					select {
					case <-ctx.Done():
						return
					case events <- ev:
					}
				}
			}
		}
	}()

	return events, nil
}

// openaiStreamState accumulates the finish reason and usage that arrive in
// separate chunks before the upstream signals EOF.
type openaiStreamState struct {
	finishReason string
	usage        models.Usage
}

// translateChatCompletionChunk maps one upstream chunk onto the uniform event
// vocabulary, in arrival order, with no buffering beyond the chunk itself.
func translateChatCompletionChunk(resp openai.ChatCompletionStreamResponse, state *openaiStreamState) []models.StreamEvent {
	var events []models.StreamEvent

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Delta.Content != "" {
			events = append(events, models.StreamEvent{
				Type:  models.StreamContentDelta,
				Delta: choice.Delta.Content,
			})
		}
		if choice.FinishReason != "" {
			state.finishReason = string(choice.FinishReason)
		}
	}

	if resp.Usage != nil {
		state.usage = models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return events
}

func buildChatCompletionRequest(req *models.ProviderRequest) openai.ChatCompletionRequest {
	openaiReq := openai.ChatCompletionRequest{
		Model:    req.Params.Model,
		Messages: make([]openai.ChatCompletionMessage, len(req.Messages)),
	}

	for i, msg := range req.Messages {
		converted := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		openaiReq.Messages[i] = converted
	}

	if req.Params.HasTemperature {
		openaiReq.Temperature = req.Params.Temperature
	}
	if req.Params.MaxCompletionTokens > 0 {
		openaiReq.MaxCompletionTokens = req.Params.MaxCompletionTokens
	} else if req.Params.MaxTokens > 0 {
		openaiReq.MaxTokens = req.Params.MaxTokens
	}

	for _, tool := range req.Params.Tools {
		openaiReq.Tools = append(openaiReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if req.Params.ToolChoice != "" {
		openaiReq.ToolChoice = req.Params.ToolChoice
	}

	return openaiReq
}
