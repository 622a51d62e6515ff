package data

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
)

func completionServer(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		resp := openai.ChatCompletionResponse{ID: "cmpl-1", Object: "chat.completion", Model: "gpt-3.5-turbo"}
		if content != "" {
			resp.Choices = []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerator_Generate(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := completionServer(t, "2+2 = 4", &seen)

	gen := NewGenerator(NewOpenAIClient("sk-test", srv.URL+"/v1"), "")
	answer, err := gen.Generate(context.Background(), repo.Completion{
		System:      "Answer briefly.",
		User:        "こんにちは。What is 2+2?",
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "2+2 = 4", answer)
	assert.Equal(t, openai.GPT3Dot5Turbo, gen.Model())
	assert.Equal(t, openai.GPT3Dot5Turbo, seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, seen.Messages[0].Role)
	assert.Equal(t, "こんにちは。What is 2+2?", seen.Messages[1].Content)
	assert.InDelta(t, 0.7, seen.Temperature, 0.0001)
}

func TestGenerator_NoChoices(t *testing.T) {
	srv := completionServer(t, "", nil)

	gen := NewGenerator(NewOpenAIClient("sk-test", srv.URL+"/v1"), "gpt-4")
	_, err := gen.Generate(context.Background(), repo.Completion{User: "hi"})

	assert.True(t, errors.Is(err, domain.ErrNoAnswer))
	assert.Equal(t, "gpt-4", gen.Model())
}

func TestGenerator_BlankAnswer(t *testing.T) {
	srv := completionServer(t, "  \n", nil)

	gen := NewGenerator(NewOpenAIClient("sk-test", srv.URL+"/v1"), "")
	_, err := gen.Generate(context.Background(), repo.Completion{User: "hi"})

	assert.True(t, errors.Is(err, domain.ErrNoAnswer))
}

func TestGenerator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	gen := NewGenerator(NewOpenAIClient("sk-test", srv.URL+"/v1"), "")
	_, err := gen.Generate(context.Background(), repo.Completion{User: "hi"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoAnswer))
}
