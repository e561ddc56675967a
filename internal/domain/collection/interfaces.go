package collection

import "context"

// Store is the per-user document store the registry persists through.
// ReadRecord reports a missing record with store.ErrNotFound; backends wrap
// retryable failures with store.ErrTransient.
type Store interface {
	ReadRecord(ctx context.Context, userID string) (*UserRecord, error)
	WriteRecord(ctx context.Context, userID string, patch RecordPatch) error
	ListDocuments(ctx context.Context, userID, collection string) ([]Document, error)
	Batch() Batch
}

// Batch buffers writes and applies them all-or-nothing on Commit.
type Batch interface {
	SetRecord(userID string, patch RecordPatch)
	SetDocument(userID, collection string, doc Document)
	DeleteDocument(userID, collection, docID string)
	Commit(ctx context.Context) error
}
