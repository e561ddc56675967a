package study

import (
	"context"

	"github.com/rpggio/flashdeck/internal/domain/collection"
)

// CardLoader loads the cards of a stored collection.
type CardLoader interface {
	LoadCards(ctx context.Context, userID, name string) ([]collection.Flashcard, error)
}
