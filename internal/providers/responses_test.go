package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

func TestExtractResponseText(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "output_text field",
			payload: `{"output_text":"hello from output_text"}`,
			want:    "hello from output_text",
		},
		{
			name:    "data.text field",
			payload: `{"data":{"text":"hello from data"}}`,
			want:    "hello from data",
		},
		{
			name:    "output message list",
			payload: `{"output":[{"type":"reasoning"},{"type":"message","content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}]}]}`,
			want:    "hello world",
		},
		{
			name:    "output_text typed fragments",
			payload: `{"output":[{"type":"message","content":[{"type":"output_text","text":"fragment text"}]}]}`,
			want:    "fragment text",
		},
		{
			name:    "chat completion shape",
			payload: `{"choices":[{"message":{"content":"hello from choices"}}]}`,
			want:    "hello from choices",
		},
		{
			name:    "bare content field",
			payload: `{"content":"hello from content"}`,
			want:    "hello from content",
		},
		{
			name:    "earlier strategy wins",
			payload: `{"output_text":"first","content":"last"}`,
			want:    "first",
		},
		{
			name:    "non-string value stringified",
			payload: `{"content":{"parts":["a","b"]}}`,
			want:    `{"parts":["a","b"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractResponseText([]byte(tt.payload)))
		})
	}
}

func TestExtractResponseText_UnrecognizedPayloadDiagnostic(t *testing.T) {
	payload := `{"foo":"bar"}`
	got := extractResponseText([]byte(payload))

	assert.Contains(t, got, "Unable to parse the model's response")
	assert.Contains(t, got, payload)
}

func TestExtractResponseText_DiagnosticIsBounded(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'x'
	}
	got := extractResponseText(long)

	assert.Contains(t, got, "Unable to parse the model's response")
	assert.LessOrEqual(t, len(got), diagnosticPayloadLimit+64)
}

func TestFlattenConversation(t *testing.T) {
	got := flattenConversation([]models.Message{
		{Role: models.RoleSystem, Content: "You are helpful."},
		{Role: models.RoleUser, Content: "hi"},
	})
	assert.Equal(t, "system: You are helpful.\n\nuser: hi", got)
}

func TestResponsesClient_Complete(t *testing.T) {
	var gotAuth string
	var gotBody responsesRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/responses", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gpt-5-pro-2025-06","output_text":"pro answer","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer ts.Close()

	client := newResponsesClient(ClientConfig{APIKey: "sk-test"}, ts.URL)
	resp, err := client.Complete(context.Background(), &models.ProviderRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
		Params:   models.Params{Model: "gpt-5-pro", MaxTokens: 8000},
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-5-pro", gotBody.Model)
	assert.Equal(t, 8000, gotBody.MaxOutputTokens)
	assert.Equal(t, "pro answer", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "gpt-5-pro-2025-06", resp.Model)
	assert.Equal(t, models.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, resp.Usage)
}

func TestResponsesClient_Complete_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer ts.Close()

	client := newResponsesClient(ClientConfig{APIKey: "sk-test"}, ts.URL)
	_, err := client.Complete(context.Background(), &models.ProviderRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
		Params:   models.Params{Model: "o3-pro"},
	})

	var respErr *ResponsesError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusTooManyRequests, respErr.StatusCode)
	assert.Equal(t, "rate limited", respErr.Message)
	assert.Contains(t, respErr.Error(), "429")
}

func TestResponsesClient_Complete_UnrecognizedPayloadIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"foo":"bar"}`))
	}))
	defer ts.Close()

	client := newResponsesClient(ClientConfig{APIKey: "sk-test"}, ts.URL)
	resp, err := client.Complete(context.Background(), &models.ProviderRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
		Params:   models.Params{Model: "gpt-5-pro"},
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Content, "Unable to parse the model's response")
}

func TestResponsesClient_CompleteStream_ReplaysAsDeltaAndDone(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output_text":"streamed answer"}`))
	}))
	defer ts.Close()

	client := newResponsesClient(ClientConfig{APIKey: "sk-test"}, ts.URL)
	events, err := client.CompleteStream(context.Background(), &models.ProviderRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
		Params:   models.Params{Model: "gpt-5-pro"},
	})
	require.NoError(t, err)

	var collected []models.StreamEvent
	for ev := range events {
		collected = append(collected, ev)
	}

	require.Len(t, collected, 2)
	assert.Equal(t, models.StreamContentDelta, collected[0].Type)
	assert.Equal(t, "streamed answer", collected[0].Delta)
	assert.Equal(t, models.StreamDone, collected[1].Type)
	assert.Equal(t, "stop", collected[1].FinishReason)
}
