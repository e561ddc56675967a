package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/store"
)

// CollectionStore implements collection.Store for SQLite
type CollectionStore struct {
	db *DB
}

var _ collection.Store = (*CollectionStore)(nil)

// NewCollectionStore creates a new CollectionStore
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db}
}

// ReadRecord retrieves a user's root record
func (s *CollectionStore) ReadRecord(ctx context.Context, userID string) (*collection.UserRecord, error) {
	query := `
		SELECT collections
		FROM user_records
		WHERE user_id = ?
	`

	var raw string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("read user record", err)
	}

	rec := &collection.UserRecord{UserID: userID}
	if err := json.Unmarshal([]byte(raw), &rec.Collections); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}
	return rec, nil
}

// WriteRecord merges patch into the user's record, creating it if absent
func (s *CollectionStore) WriteRecord(ctx context.Context, userID string, patch collection.RecordPatch) error {
	query, args, err := upsertRecord(userID, patch)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapErr("write user record", err)
	}
	return nil
}

// ListDocuments returns the documents stored under a collection in insertion order
func (s *CollectionStore) ListDocuments(ctx context.Context, userID, name string) ([]collection.Document, error) {
	query := `
		SELECT doc_id, front, back
		FROM collection_documents
		WHERE user_id = ? AND collection = ?
		ORDER BY rowid
	`

	rows, err := s.db.QueryContext(ctx, query, userID, name)
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	defer rows.Close()

	docs := []collection.Document{}
	for rows.Next() {
		var doc collection.Document
		if err := rows.Scan(&doc.ID, &doc.Flashcard.Front, &doc.Flashcard.Back); err != nil {
			return nil, wrapErr("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list documents", err)
	}
	return docs, nil
}

// Batch starts a new atomic write batch
func (s *CollectionStore) Batch() collection.Batch {
	return &Batch{db: s.db}
}

// upsertRecord builds the merge statement for patch. Nil patch fields keep
// the stored value.
func upsertRecord(userID string, patch collection.RecordPatch) (string, []any, error) {
	now := time.Now()
	if patch.Collections == nil {
		query := `
			INSERT INTO user_records (user_id, updated_at)
			VALUES (?, ?)
			ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at
		`
		return query, []any{userID, now}, nil
	}

	summaries := *patch.Collections
	if summaries == nil {
		summaries = []collection.Summary{}
	}
	raw, err := json.Marshal(summaries)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode collections: %w", err)
	}

	query := `
		INSERT INTO user_records (user_id, collections, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			collections = excluded.collections,
			updated_at = excluded.updated_at
	`
	return query, []any{userID, string(raw), now}, nil
}
