// Package study drives flashcard study sessions.
package study

import (
	"slices"

	"github.com/rpggio/flashdeck/internal/domain/collection"
)

// Session is the navigation state over one loaded deck. Every transition is
// total; on an empty deck they are all no-ops.
type Session struct {
	ID              string                 `json:"id"`
	Collection      string                 `json:"collection"`
	Cards           []collection.Flashcard `json:"cards"`
	Flipped         []bool                 `json:"flipped"`
	CurrentIndex    int                    `json:"currentIndex"`
	ProgressPercent float64                `json:"progressPercent"`
}

// NewSession starts at the first card, unflipped, with zero progress.
func NewSession(cards []collection.Flashcard) *Session {
	if cards == nil {
		cards = []collection.Flashcard{}
	}
	return &Session{
		Cards:   cards,
		Flipped: make([]bool, len(cards)),
	}
}

// Empty reports whether the deck has no cards.
func (s *Session) Empty() bool {
	return len(s.Cards) == 0
}

// Current returns the card at the current index.
func (s *Session) Current() (collection.Flashcard, bool) {
	if s.Empty() {
		return collection.Flashcard{}, false
	}
	return s.Cards[s.CurrentIndex], true
}

// Flip toggles the flip state of the current card.
func (s *Session) Flip() {
	if s.Empty() {
		return
	}
	s.Flipped[s.CurrentIndex] = !s.Flipped[s.CurrentIndex]
}

// Next advances one card. Progress is computed from the new index, so the
// first step on a four-card deck reports 25%.
func (s *Session) Next() {
	if s.Empty() || s.CurrentIndex == len(s.Cards)-1 {
		return
	}
	s.CurrentIndex++
	s.updateProgress()
}

// Previous steps back one card and recomputes progress from the new index.
func (s *Session) Previous() {
	if s.Empty() || s.CurrentIndex == 0 {
		return
	}
	s.CurrentIndex--
	s.updateProgress()
}

// Restart returns to the first card and clears flips and progress.
func (s *Session) Restart() {
	s.CurrentIndex = 0
	s.ProgressPercent = 0
	for i := range s.Flipped {
		s.Flipped[i] = false
	}
}

func (s *Session) updateProgress() {
	s.ProgressPercent = float64(s.CurrentIndex) / float64(len(s.Cards)) * 100
}

func (s *Session) clone() *Session {
	c := *s
	c.Cards = slices.Clone(s.Cards)
	c.Flipped = slices.Clone(s.Flipped)
	return &c
}
