package gormstore

import (
	"context"

	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type op struct {
	action string
	apply  func(tx *gorm.DB) error
}

// Batch buffers writes and applies them in one transaction.
type Batch struct {
	db        *gorm.DB
	ops       []op
	committed bool
}

var _ collection.Batch = (*Batch)(nil)

func (b *Batch) SetRecord(userID string, patch collection.RecordPatch) {
	b.ops = append(b.ops, op{action: "write user record", apply: func(tx *gorm.DB) error {
		return upsertRecord(tx, userID, patch)
	}})
}

func (b *Batch) SetDocument(userID, name string, doc collection.Document) {
	row := document{
		UserID:     userID,
		Collection: name,
		DocID:      doc.ID,
		Front:      doc.Flashcard.Front,
		Back:       doc.Flashcard.Back,
	}
	b.ops = append(b.ops, op{action: "write document", apply: func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"front", "back"}),
		}).Create(&row).Error
	}})
}

func (b *Batch) DeleteDocument(userID, name, docID string) {
	b.ops = append(b.ops, op{action: "delete document", apply: func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND collection = ? AND doc_id = ?", userID, name, docID).
			Delete(&document{}).Error
	}})
}

// Commit applies every queued write or none of them.
func (b *Batch) Commit(ctx context.Context) error {
	if b.committed {
		return store.ErrBatchCommitted
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range b.ops {
			if err := o.apply(tx); err != nil {
				return wrapErr(o.action, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.committed = true
	return nil
}
