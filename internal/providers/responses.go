package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/logger"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

// diagnosticPayloadLimit bounds how much of an unrecognized payload is echoed
// back in the degraded content string.
const diagnosticPayloadLimit = 240

// ResponsesError reports a non-2xx reply from the responses endpoint, carrying
// the upstream status and any embedded error message.
type ResponsesError struct {
	StatusCode int
	Message    string
}

func (e *ResponsesError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("responses endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("responses endpoint returned status %d: %s", e.StatusCode, e.Message)
}

// responsesClient serves the models that do not support the chat-completion
// shape. It is a last-resort format-compatibility layer: transport and status
// failures are errors, but any 2xx payload produces content, however degraded.
type responsesClient struct {
	config  ClientConfig
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func newResponsesClient(config ClientConfig, baseURL string) *responsesClient {
	return &responsesClient{
		config:  config,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger.GetLogger().WithComponent("responses_client"),
	}
}

type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
}

func (c *responsesClient) Complete(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error) {
	body, err := json.Marshal(responsesRequest{
		Model:           req.Params.Model,
		Input:           flattenConversation(req.Messages),
		MaxOutputTokens: req.Params.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponsesError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(raw),
		}
	}

	content := extractResponseText(raw)

	out := &models.ProviderResponse{
		Content:      content,
		FinishReason: "stop",
		Model:        req.Params.Model,
	}

	var envelope struct {
		Model string `json:"model"`
		Usage *struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Model != "" {
			out.Model = envelope.Model
		}
		if envelope.Usage != nil {
			out.Usage = models.Usage{
				PromptTokens:     envelope.Usage.InputTokens,
				CompletionTokens: envelope.Usage.OutputTokens,
				TotalTokens:      envelope.Usage.TotalTokens,
			}
			if out.Usage.TotalTokens == 0 {
				out.Usage.TotalTokens = out.Usage.PromptTokens + out.Usage.CompletionTokens
			}
		}
	}

	return out, nil
}

// CompleteStream replays the one-shot responses call as a minimal event
// sequence: a single content delta followed by the terminal done event.
func (c *responsesClient) CompleteStream(ctx context.Context, req *models.ProviderRequest) (<-chan models.StreamEvent, error) {
	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)

		resp, err := c.Complete(ctx, req)
		if err != nil {
			c.logger.WithError(err).Error("responses call failed during stream replay")
			return
		}

		for _, ev := range []models.StreamEvent{
			{Type: models.StreamContentDelta, Delta: resp.Content},
			{Type: models.StreamDone, FinishReason: resp.FinishReason, Usage: resp.Usage},
		} {
			select {
			case <-ctx.Done():
				return
			case events <- ev:
			}
		}
	}()

	return events, nil
}

// flattenConversation renders the full conversation into the single input
// field consumed by the responses endpoint.
func flattenConversation(messages []models.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// extractResponseText parses a responses payload with a prioritized cascade of
// extraction strategies. The envelope has no fixed schema across observed
// variants, so each strategy is tried in order until one yields non-empty
// text; total failure degrades to a bounded diagnostic string. This function
// never fails.
func extractResponseText(raw []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return diagnosticContent(raw)
	}

	strategies := []func(map[string]interface{}) (interface{}, bool){
		extractOutputText,
		extractDataText,
		extractOutputMessages,
		extractChoiceContent,
		extractGenericContent,
	}

	for _, extract := range strategies {
		if value, ok := extract(payload); ok {
			if text := stringifyValue(value); strings.TrimSpace(text) != "" {
				return text
			}
		}
	}

	return diagnosticContent(raw)
}

// extractOutputText handles the top-level output_text convenience field.
func extractOutputText(payload map[string]interface{}) (interface{}, bool) {
	value, ok := payload["output_text"]
	return value, ok
}

// extractDataText handles envelopes nesting the text under a data object.
func extractDataText(payload map[string]interface{}) (interface{}, bool) {
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := data["text"]
	return value, ok
}

// extractOutputMessages handles the output list shape: the first message-typed
// item contributes the concatenation of its text-typed content fragments.
func extractOutputMessages(payload map[string]interface{}) (interface{}, bool) {
	output, ok := payload["output"].([]interface{})
	if !ok {
		return nil, false
	}

	for _, item := range output {
		itemMap, ok := item.(map[string]interface{})
		if !ok || itemMap["type"] != "message" {
			continue
		}

		content, ok := itemMap["content"].([]interface{})
		if !ok {
			return nil, false
		}

		var b strings.Builder
		for _, fragment := range content {
			fragmentMap, ok := fragment.(map[string]interface{})
			if !ok {
				continue
			}
			if fragmentMap["type"] != "text" && fragmentMap["type"] != "output_text" {
				continue
			}
			if text, ok := fragmentMap["text"].(string); ok {
				b.WriteString(text)
			}
		}
		return b.String(), true
	}

	return nil, false
}

// extractChoiceContent handles legacy chat-completion-shaped envelopes.
func extractChoiceContent(payload map[string]interface{}) (interface{}, bool) {
	choices, ok := payload["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return nil, false
	}
	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := message["content"]
	return value, ok
}

// extractGenericContent handles a bare content field.
func extractGenericContent(payload map[string]interface{}) (interface{}, bool) {
	value, ok := payload["content"]
	return value, ok
}

// stringifyValue serializes non-string extracted values to text.
func stringifyValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	if value == nil {
		return ""
	}
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

func diagnosticContent(raw []byte) string {
	snippet := string(raw)
	if len(snippet) > diagnosticPayloadLimit {
		snippet = snippet[:diagnosticPayloadLimit]
	}
	return fmt.Sprintf("Unable to parse the model's response. Raw payload begins: %s", snippet)
}

func extractErrorMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
