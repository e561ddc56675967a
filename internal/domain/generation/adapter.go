// Package generation turns LLM output into flashcards.
package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/flashdeck/internal/domain"
	"github.com/rpggio/flashdeck/internal/domain/collection"
)

// ErrMalformedGenerationResult is returned for any payload that is not
// {"flashcards": [{"front": string, "back": string}, ...]}.
var ErrMalformedGenerationResult = errors.New("malformed generation result")

var validate = newValidator()

type payload struct {
	Flashcards []cardPayload `json:"flashcards" validate:"required,dive"`
}

type cardPayload struct {
	Front *string `json:"front" validate:"required"`
	Back  *string `json:"back" validate:"required"`
}

// Parse validates raw generation output. The payload is accepted or rejected
// as a whole; no partially parsed deck is ever returned.
func Parse(raw []byte) ([]collection.Flashcard, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("flashcards", "Invalid response format")
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, malformed(fieldPath(verrs[0].Namespace()), "Invalid response format")
		}
		return nil, malformed("flashcards", "Invalid response format")
	}

	cards := make([]collection.Flashcard, 0, len(p.Flashcards))
	for _, c := range p.Flashcards {
		cards = append(cards, collection.Flashcard{Front: *c.Front, Back: *c.Back})
	}
	return cards, nil
}

// fieldPath drops the root struct name so the path matches the JSON document.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func malformed(field, message string) error {
	return fmt.Errorf("%w: %w", ErrMalformedGenerationResult, domain.NewValidationError(field, message))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
