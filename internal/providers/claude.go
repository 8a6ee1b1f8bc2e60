package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

const (
	anthropicVersion       = "2023-06-01"
	defaultClaudeAPIBase   = "https://api.anthropic.com/v1"
	defaultClaudeMaxTokens = 8000
)

// ClaudeProvider implements Provider for the Anthropic messages API.
type ClaudeProvider struct {
	config ClientConfig
	client *http.Client
}

// NewClaudeProvider creates a new Claude provider client
func NewClaudeProvider(config ClientConfig) *ClaudeProvider {
	if config.APIBase == "" {
		config.APIBase = defaultClaudeAPIBase
	}
	config.APIBase = strings.TrimRight(config.APIBase, "/")

	if len(config.Models) == 0 {
		config.Models = []string{"claude-sonnet-4-20250514", "claude-opus-4-20250514", "claude-3-5-haiku-20241022"}
	}

	return &ClaudeProvider{
		config: config,
		client: &http.Client{},
	}
}

func (p *ClaudeProvider) Name() string { return NameClaude }

func (p *ClaudeProvider) Models() []string {
	result := make([]string, len(p.config.Models))
	copy(result, p.config.Models)
	return result
}

type claudeRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Messages    []claudeMessage   `json:"messages"`
	Temperature *float32          `json:"temperature,omitempty"`
	Tools       []claudeTool      `json:"tools,omitempty"`
	ToolChoice  *claudeToolChoice `json:"tool_choice,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
}

type claudeMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type claudeContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type claudeTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type claudeToolChoice struct {
	Type string `json:"type"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type claudeResponse struct {
	Model      string               `json:"model"`
	Content    []claudeContentBlock `json:"content"`
	StopReason string               `json:"stop_reason"`
	Usage      *claudeUsage         `json:"usage"`
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
	body, err := json.Marshal(buildClaudeRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.APIBase+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(raw))
	}

	var result claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := &models.ProviderResponse{
		FinishReason: claudeStopReason(result.StopReason),
		Model:        result.Model,
	}
	if result.Usage != nil {
		out.Usage = models.Usage{
			PromptTokens:     result.Usage.InputTokens,
			CompletionTokens: result.Usage.OutputTokens,
			TotalTokens:      result.Usage.InputTokens + result.Usage.OutputTokens,
		}
	}

	var content strings.Builder
	for _, block := range result.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	out.Content = content.String()

	return out, nil
}

func (p *ClaudeProvider) CompleteStream(ctx context.Context, req *models.ProviderRequest) (<-chan models.StreamEvent, error) {
	body, err := json.Marshal(buildClaudeRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.APIBase+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(raw))
	}

	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		var state claudeStreamState
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var chunk claudeStreamChunk
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
				continue
			}

			for _, ev := range translateClaudeChunk(chunk, &state) {
				select {
				case <-ctx.Done():
					return
				case events <- ev:
				}
			}
			if chunk.Type == "message_stop" {
				return
			}
		}
	}()

	return events, nil
}

func (p *ClaudeProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

type claudeCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type claudeStreamChunk struct {
	Type  string `json:"type"`
	Delta *struct {
		Type       string          `json:"type"`
		Text       string          `json:"text,omitempty"`
		StopReason string          `json:"stop_reason,omitempty"`
		Citation   *claudeCitation `json:"citation,omitempty"`
	} `json:"delta,omitempty"`
	Message *struct {
		Model string       `json:"model"`
		Usage *claudeUsage `json:"usage"`
	} `json:"message,omitempty"`
	Usage *claudeUsage `json:"usage,omitempty"`
}

// claudeStreamState carries the finish reason and usage across chunks until
// message_stop arrives.
type claudeStreamState struct {
	finishReason string
	usage        models.Usage
}

// translateClaudeChunk maps one upstream SSE chunk onto the uniform event
// vocabulary. Citation deltas may arrive independently of content, including
// after the content has finished.
func translateClaudeChunk(chunk claudeStreamChunk, state *claudeStreamState) []models.StreamEvent {
	switch chunk.Type {
	case "message_start":
		if chunk.Message != nil && chunk.Message.Usage != nil {
			state.usage.PromptTokens = chunk.Message.Usage.InputTokens
		}
		return nil
	case "content_block_delta":
		if chunk.Delta == nil {
			return nil
		}
		switch chunk.Delta.Type {
		case "text_delta":
			if chunk.Delta.Text == "" {
				return nil
			}
			return []models.StreamEvent{{Type: models.StreamContentDelta, Delta: chunk.Delta.Text}}
		case "citations_delta":
			if chunk.Delta.Citation == nil || chunk.Delta.Citation.URL == "" {
				return nil
			}
			return []models.StreamEvent{{Type: models.StreamCitations, Citations: []string{chunk.Delta.Citation.URL}}}
		}
		return nil
	case "message_delta":
		if chunk.Delta != nil && chunk.Delta.StopReason != "" {
			state.finishReason = claudeStopReason(chunk.Delta.StopReason)
		}
		if chunk.Usage != nil {
			state.usage.CompletionTokens = chunk.Usage.OutputTokens
			state.usage.TotalTokens = state.usage.PromptTokens + chunk.Usage.OutputTokens
		}
		return nil
	case "message_stop":
		finish := state.finishReason
		if finish == "" {
			finish = "stop"
		}
		return []models.StreamEvent{{Type: models.StreamDone, FinishReason: finish, Usage: state.usage}}
	}
	return nil
}

// buildClaudeRequest maps the normalized request onto the messages API shape.
// The leading system messages move to the top-level system field; tool-role
// messages become user-role tool_result blocks keyed by the originating call.
func buildClaudeRequest(req *models.ProviderRequest, stream bool) claudeRequest {
	out := claudeRequest{
		Model:     req.Params.Model,
		MaxTokens: req.Params.MaxTokens,
		Stream:    stream,
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = req.Params.MaxCompletionTokens
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultClaudeMaxTokens
	}
	if req.Params.HasTemperature {
		temp := req.Params.Temperature
		out.Temperature = &temp
	}

	var system strings.Builder
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)
		case models.RoleTool:
			out.Messages = append(out.Messages, claudeMessage{
				Role: "user",
				Content: []claudeContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})
		case models.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out.Messages = append(out.Messages, claudeMessage{Role: "assistant", Content: msg.Content})
				continue
			}
			var blocks []claudeContentBlock
			if msg.Content != "" {
				blocks = append(blocks, claudeContentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input, _ = json.Marshal(tc.Arguments)
				}
				blocks = append(blocks, claudeContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			out.Messages = append(out.Messages, claudeMessage{Role: "assistant", Content: blocks})
		default:
			out.Messages = append(out.Messages, claudeMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}
	out.System = system.String()

	for _, tool := range req.Params.Tools {
		out.Tools = append(out.Tools, claudeTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}
	if req.Params.ToolChoice != "" && len(out.Tools) > 0 {
		out.ToolChoice = &claudeToolChoice{Type: req.Params.ToolChoice}
	}

	return out
}

// claudeStopReason maps Anthropic stop reasons onto the normalized set.
func claudeStopReason(reason string) string {
	switch reason {
	case "end_turn", "":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}
