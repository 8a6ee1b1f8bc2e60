package models

import "encoding/json"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to invoke an external capability.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single chat turn. Messages are treated as immutable once
// constructed; a tool-role message carries the ID of the call it answers.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
}

// ChatRequest is the normalized conversation request consumed by the engine.
// The composed system message is always prepended by the engine; callers
// never supply it.
type ChatRequest struct {
	Messages      []Message `json:"messages"`
	Model         string    `json:"model,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	ResponseStyle string    `json:"responseStyle,omitempty"`
	UseWebSearch  bool      `json:"useWebSearch,omitempty"`
	MaxTokens     int       `json:"maxTokens,omitempty"`
}

// Usage records token accounting; fields are zero when the upstream omits them.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ChatResponse is the uniform result shape returned to callers regardless of
// which provider or code path served the turn. Constructed once, never mutated.
type ChatResponse struct {
	Content      string   `json:"content"`
	Usage        Usage    `json:"usage"`
	FinishReason string   `json:"finishReason"`
	Model        string   `json:"model"`
	Citations    []string `json:"citations,omitempty"`
}

// StreamEventType tags the variants of StreamEvent.
type StreamEventType string

const (
	StreamContentDelta StreamEventType = "content-delta"
	StreamCitations    StreamEventType = "citations"
	StreamDone         StreamEventType = "done"
)

// StreamEvent is one element of the ordered event sequence produced in
// streaming mode. Consumers must treat StreamDone as terminal.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Delta        string          `json:"delta,omitempty"`
	Citations    []string        `json:"citations,omitempty"`
	FinishReason string          `json:"finishReason,omitempty"`
	Usage        Usage           `json:"usage,omitempty"`
}

// ToolDefinition declares a tool to the upstream model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Params is the provider-ready parameter set produced by the request builder.
// Exactly one of MaxTokens/MaxCompletionTokens is set depending on the model
// class; HasTemperature gates the sampling temperature.
type Params struct {
	Model               string
	Class               ModelClass
	Temperature         float32
	HasTemperature      bool
	MaxTokens           int
	MaxCompletionTokens int
	Tools               []ToolDefinition
	ToolChoice          string
}

// ProviderRequest is what a provider client receives: the full conversation
// (system message already prepended) plus resolved parameters.
type ProviderRequest struct {
	Messages []Message
	Params   Params
}

// ProviderResponse is the raw normalized output of one upstream call, before
// the response normalizer runs.
type ProviderResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
	Model        string
	Citations    []string
}
