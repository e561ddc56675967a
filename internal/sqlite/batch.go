package sqlite

import (
	"context"
	"database/sql"

	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/store"
)

type batchOp struct {
	action string
	query  string
	args   []any
}

// Batch buffers writes and applies them in a single transaction on Commit.
type Batch struct {
	db        *DB
	ops       []batchOp
	err       error
	committed bool
}

var _ collection.Batch = (*Batch)(nil)

// SetRecord queues a merge write of the user's record.
func (b *Batch) SetRecord(userID string, patch collection.RecordPatch) {
	query, args, err := upsertRecord(userID, patch)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	b.ops = append(b.ops, batchOp{action: "write user record", query: query, args: args})
}

// SetDocument queues a create-or-replace of one document.
func (b *Batch) SetDocument(userID, name string, doc collection.Document) {
	query := `
		INSERT INTO collection_documents (user_id, collection, doc_id, front, back)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, collection, doc_id) DO UPDATE SET
			front = excluded.front,
			back = excluded.back
	`
	b.ops = append(b.ops, batchOp{
		action: "write document",
		query:  query,
		args:   []any{userID, name, doc.ID, doc.Flashcard.Front, doc.Flashcard.Back},
	})
}

// DeleteDocument queues removal of one document. Deleting a missing document is not an error.
func (b *Batch) DeleteDocument(userID, name, docID string) {
	query := `
		DELETE FROM collection_documents
		WHERE user_id = ? AND collection = ? AND doc_id = ?
	`
	b.ops = append(b.ops, batchOp{action: "delete document", query: query, args: []any{userID, name, docID}})
}

// Commit applies every queued write or none of them.
func (b *Batch) Commit(ctx context.Context) error {
	if b.committed {
		return store.ErrBatchCommitted
	}
	if b.err != nil {
		return b.err
	}

	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	for _, op := range b.ops {
		if _, err := tx.ExecContext(ctx, op.query, op.args...); err != nil {
			return wrapErr(op.action, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	b.committed = true
	return nil
}
