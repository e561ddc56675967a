package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/llm"
)

// DefaultNumFlashcards is used when a request leaves the count unset.
const DefaultNumFlashcards = 10

// FailureMessage is what users see for any generation failure.
const FailureMessage = "Failed to generate flashcards. Please try again."

// ErrGenerationFailed wraps every provider or parse failure.
var ErrGenerationFailed = errors.New("generation failed")

// Request is the input to Generate.
type Request struct {
	Data          string `json:"data" validate:"required"`
	NumFlashcards int    `json:"numFlashcards" validate:"min=1,max=50"`
}

// Service generates flashcards from study text.
type Service struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewService creates a generation service.
func NewService(provider llm.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{provider: provider, logger: logger}
}

// Generate asks the model for a deck and validates its reply. Provider and
// parse failures are both reported as ErrGenerationFailed.
func (s *Service) Generate(ctx context.Context, req Request) ([]collection.Flashcard, error) {
	if req.NumFlashcards == 0 {
		req.NumFlashcards = DefaultNumFlashcards
	}
	if err := validate.Struct(req); err != nil {
		return nil, requestError(err)
	}

	content, err := s.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt(req.NumFlashcards)},
		{Role: llm.RoleUser, Content: req.Data},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "completion request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	cards, err := Parse([]byte(content))
	if err != nil {
		s.logger.WarnContext(ctx, "rejected generation result", "error", err, "content_len", len(content))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return cards, nil
}

func requestError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("request", err.Error())
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return &domain.ValidationError{Errors: fields}
}
