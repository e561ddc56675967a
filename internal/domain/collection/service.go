package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/rpggio/flashdeck/internal/retry"
	"github.com/rpggio/flashdeck/internal/store"
)

// Service is the collection registry. It keeps each user's summary list and
// the flashcard documents stored under every collection consistent.
type Service struct {
	store  Store
	retry  retry.Policy
	newID  func() string
	logger *slog.Logger
}

// NewService creates a registry over store. A policy without a classifier
// retries failures the backend marked with store.ErrTransient.
func NewService(st Store, policy retry.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if policy.IsTransient == nil {
		policy.IsTransient = store.IsTransient
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Service{
		store:  st,
		retry:  policy,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Create stores cards under a new collection and appends its summary.
// The summary and every card document are committed in one batch.
//
// Document ids are assigned once, before the first attempt. When a commit
// reports a transient failure but actually landed, the retry finds the
// collection holding exactly those ids and reports success instead of
// ErrDuplicateName.
func (s *Service) Create(ctx context.Context, userID, name string, cards []Flashcard) (*Summary, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	summary := Summary{Name: name, CardsCount: len(cards)}
	docs := make([]Document, 0, len(cards))
	for _, card := range cards {
		docs = append(docs, Document{ID: s.newID(), Flashcard: card})
	}

	committing := false
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		summaries, err := s.readSummaries(ctx, userID)
		if err != nil {
			return err
		}
		if i := indexOf(summaries, name); i >= 0 {
			if committing && summaries[i] == summary {
				landed, err := s.holdsDocuments(ctx, userID, name, docs)
				if err != nil {
					return err
				}
				if landed {
					return nil
				}
			}
			return ErrDuplicateName
		}

		updated := append(slices.Clone(summaries), summary)
		batch := s.store.Batch()
		batch.SetRecord(userID, RecordPatch{Collections: &updated})
		for _, doc := range docs {
			batch.SetDocument(userID, name, doc)
		}
		committing = true
		return batch.Commit(ctx)
	})
	if err != nil {
		return nil, s.classify(ctx, "creating collection", err)
	}

	s.logger.InfoContext(ctx, "collection created", "user_id", userID, "collection", name, "cards", len(cards))
	return &summary, nil
}

// holdsDocuments reports whether name stores exactly the documents in want.
func (s *Service) holdsDocuments(ctx context.Context, userID, name string, want []Document) (bool, error) {
	stored, err := s.store.ListDocuments(ctx, userID, name)
	if err != nil {
		return false, err
	}
	if len(stored) != len(want) {
		return false, nil
	}
	ids := make(map[string]bool, len(want))
	for _, doc := range want {
		ids[doc.ID] = true
	}
	for _, doc := range stored {
		if !ids[doc.ID] {
			return false, nil
		}
	}
	return true, nil
}

// Rename moves every document from oldName to newName and renames the
// summary entry. Both steps share one batch.
func (s *Service) Rename(ctx context.Context, userID, oldName, newName string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	err := s.retry.Do(ctx, func(ctx context.Context) error {
		summaries, err := s.readSummaries(ctx, userID)
		if err != nil {
			return err
		}
		i := indexOf(summaries, oldName)
		if i < 0 {
			return ErrNotFound
		}
		if oldName == newName {
			return nil
		}
		if indexOf(summaries, newName) >= 0 {
			return ErrDuplicateName
		}

		docs, err := s.store.ListDocuments(ctx, userID, oldName)
		if err != nil {
			return err
		}

		batch := s.store.Batch()
		for _, doc := range docs {
			batch.SetDocument(userID, newName, doc)
			batch.DeleteDocument(userID, oldName, doc.ID)
		}
		updated := slices.Clone(summaries)
		updated[i] = Summary{Name: newName, CardsCount: len(docs)}
		batch.SetRecord(userID, RecordPatch{Collections: &updated})
		return batch.Commit(ctx)
	})
	if err != nil {
		return s.classify(ctx, "renaming collection", err)
	}

	s.logger.InfoContext(ctx, "collection renamed", "user_id", userID, "from", oldName, "to", newName)
	return nil
}

// Delete removes every document under name together with its summary entry.
func (s *Service) Delete(ctx context.Context, userID, name string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	err := s.retry.Do(ctx, func(ctx context.Context) error {
		summaries, err := s.readSummaries(ctx, userID)
		if err != nil {
			return err
		}
		i := indexOf(summaries, name)
		if i < 0 {
			return ErrNotFound
		}

		docs, err := s.store.ListDocuments(ctx, userID, name)
		if err != nil {
			return err
		}

		batch := s.store.Batch()
		for _, doc := range docs {
			batch.DeleteDocument(userID, name, doc.ID)
		}
		updated := slices.Delete(slices.Clone(summaries), i, i+1)
		batch.SetRecord(userID, RecordPatch{Collections: &updated})
		return batch.Commit(ctx)
	})
	if err != nil {
		return s.classify(ctx, "deleting collection", err)
	}

	s.logger.InfoContext(ctx, "collection deleted", "user_id", userID, "collection", name)
	return nil
}

// List returns the user's summaries in insertion order.
//
// List has a write side effect: when the user has no record yet it stores an
// empty one, so later merges always land on an existing record.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var summaries []Summary
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		rec, err := s.store.ReadRecord(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			empty := []Summary{}
			if err := s.store.WriteRecord(ctx, userID, RecordPatch{Collections: &empty}); err != nil {
				return err
			}
			s.logger.DebugContext(ctx, "initialized user record", "user_id", userID)
			summaries = empty
			return nil
		}
		if err != nil {
			return err
		}
		summaries = rec.Collections
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "listing collections", err)
	}

	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}

// LoadCards returns every card stored under name. A collection with no
// documents yields an empty slice, not an error.
func (s *Service) LoadCards(ctx context.Context, userID, name string) ([]Flashcard, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var docs []Document
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		docs, err = s.store.ListDocuments(ctx, userID, name)
		return err
	})
	if err != nil {
		return nil, s.classify(ctx, "loading cards", err)
	}

	cards := make([]Flashcard, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, doc.Flashcard)
	}
	return cards, nil
}

func (s *Service) readSummaries(ctx context.Context, userID string) ([]Summary, error) {
	rec, err := s.store.ReadRecord(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Collections, nil
}

// classify maps a failed operation onto the registry's error vocabulary.
func (s *Service) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, retry.ErrExhausted):
		s.logger.WarnContext(ctx, "store unavailable", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, ErrPersistenceUnavailable, err)
	default:
		s.logger.ErrorContext(ctx, "unexpected store failure", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, ErrUnexpected, err)
	}
}

func indexOf(summaries []Summary, name string) int {
	return slices.IndexFunc(summaries, func(s Summary) bool {
		return s.Name == name
	})
}
