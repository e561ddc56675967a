package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements collection.Store on PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ collection.Store = (*Store)(nil)

// New wraps an open GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ReadRecord(ctx context.Context, userID string) (*collection.UserRecord, error) {
	var row userRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("read user record", err)
	}

	rec := &collection.UserRecord{UserID: userID}
	if err := json.Unmarshal([]byte(row.Collections), &rec.Collections); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}
	return rec, nil
}

func (s *Store) WriteRecord(ctx context.Context, userID string, patch collection.RecordPatch) error {
	if err := upsertRecord(s.db.WithContext(ctx), userID, patch); err != nil {
		return wrapErr("write user record", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, userID, name string) ([]collection.Document, error) {
	var rows []document
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, name).
		Order("created_at, doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, wrapErr("list documents", err)
	}

	docs := make([]collection.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, collection.Document{
			ID:        r.DocID,
			Flashcard: collection.Flashcard{Front: r.Front, Back: r.Back},
		})
	}
	return docs, nil
}

func (s *Store) Batch() collection.Batch {
	return &Batch{db: s.db}
}

// upsertRecord merges patch into the user's row. A nil Collections keeps the
// stored list.
func upsertRecord(tx *gorm.DB, userID string, patch collection.RecordPatch) error {
	row := userRecord{UserID: userID, Collections: "[]", UpdatedAt: time.Now()}
	updates := []string{"updated_at"}

	if patch.Collections != nil {
		summaries := *patch.Collections
		if summaries == nil {
			summaries = []collection.Summary{}
		}
		raw, err := json.Marshal(summaries)
		if err != nil {
			return fmt.Errorf("encode collections: %w", err)
		}
		row.Collections = string(raw)
		updates = append(updates, "collections")
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&row).Error
}
