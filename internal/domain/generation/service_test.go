package generation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/llm"
	"github.com/stretchr/testify/require"
)

type providerStub struct {
	chatFn func(context.Context, []llm.Message) (string, error)
}

func (p providerStub) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	return p.chatFn(ctx, history)
}

func TestGenerate_Success(t *testing.T) {
	var sent []llm.Message
	svc := generation.NewService(providerStub{chatFn: func(_ context.Context, history []llm.Message) (string, error) {
		sent = history
		return `{"flashcards":[{"front":"Mitochondria","back":"Powerhouse of the cell"}]}`, nil
	}}, nil)

	cards, err := svc.Generate(context.Background(), generation.Request{Data: "cell biology", NumFlashcards: 1})
	require.NoError(t, err)
	require.Equal(t, []collection.Flashcard{{Front: "Mitochondria", Back: "Powerhouse of the cell"}}, cards)

	require.Len(t, sent, 2)
	require.Equal(t, llm.RoleSystem, sent[0].Role)
	require.Contains(t, sent[0].Content, "Generate exactly 1 flashcards.")
	require.Equal(t, llm.Message{Role: llm.RoleUser, Content: "cell biology"}, sent[1])
}

func TestGenerate_DefaultCount(t *testing.T) {
	svc := generation.NewService(providerStub{chatFn: func(_ context.Context, history []llm.Message) (string, error) {
		require.Contains(t, history[0].Content, "generate 10 flashcards")
		return `{"flashcards":[]}`, nil
	}}, nil)

	_, err := svc.Generate(context.Background(), generation.Request{Data: "x"})
	require.NoError(t, err)
}

func TestGenerate_ProviderFailure(t *testing.T) {
	svc := generation.NewService(providerStub{chatFn: func(context.Context, []llm.Message) (string, error) {
		return "", errors.New("connection refused")
	}}, nil)

	_, err := svc.Generate(context.Background(), generation.Request{Data: "x", NumFlashcards: 3})
	require.ErrorIs(t, err, generation.ErrGenerationFailed)
}

func TestGenerate_MalformedReply(t *testing.T) {
	svc := generation.NewService(providerStub{chatFn: func(context.Context, []llm.Message) (string, error) {
		return `{"cards":[]}`, nil
	}}, nil)

	_, err := svc.Generate(context.Background(), generation.Request{Data: "x", NumFlashcards: 3})
	require.ErrorIs(t, err, generation.ErrGenerationFailed)
	require.ErrorIs(t, err, generation.ErrMalformedGenerationResult)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	called := false
	svc := generation.NewService(providerStub{chatFn: func(context.Context, []llm.Message) (string, error) {
		called = true
		return "", nil
	}}, nil)

	_, err := svc.Generate(context.Background(), generation.Request{Data: "", NumFlashcards: 500})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.NotErrorIs(t, err, generation.ErrGenerationFailed)
	require.False(t, called)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)
	require.Equal(t, "data", verr.Errors[0].Field)
}
