package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/flashdeck/internal/llm"
	"github.com/rpggio/flashdeck/internal/llm/openai"
	"github.com/stretchr/testify/require"
)

func TestProvider_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"flashcards\":[]}"}}]}`))
	}))
	defer srv.Close()

	p := openai.NewProvider(srv.URL, "sk-test", "", 0)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be a flashcard creator"},
		{Role: llm.RoleUser, Content: "photosynthesis"},
	}, llm.WithModel("gpt-4"))
	require.NoError(t, err)
	require.Equal(t, `{"flashcards":[]}`, out)

	require.Equal(t, "gpt-4", got["model"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	p := openai.NewProvider(srv.URL, "", "", 0)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}})
	require.ErrorContains(t, err, "rate limited")
}

func TestProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := openai.NewProvider(srv.URL, "", "", 0)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}})
	require.ErrorIs(t, err, openai.ErrEmptyResponse)
}
