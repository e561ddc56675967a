package mocks

import (
	"context"

	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for collection.Store.
type Store struct {
	mock.Mock
}

func (m *Store) ReadRecord(ctx context.Context, userID string) (*collection.UserRecord, error) {
	args := m.Called(ctx, userID)
	if rec, ok := args.Get(0).(*collection.UserRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) WriteRecord(ctx context.Context, userID string, patch collection.RecordPatch) error {
	args := m.Called(ctx, userID, patch)
	return args.Error(0)
}

func (m *Store) ListDocuments(ctx context.Context, userID, name string) ([]collection.Document, error) {
	args := m.Called(ctx, userID, name)
	if docs, ok := args.Get(0).([]collection.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Batch() collection.Batch {
	args := m.Called()
	return args.Get(0).(collection.Batch)
}

// Batch is a mock for collection.Batch.
type Batch struct {
	mock.Mock
}

func (m *Batch) SetRecord(userID string, patch collection.RecordPatch) {
	m.Called(userID, patch)
}

func (m *Batch) SetDocument(userID, name string, doc collection.Document) {
	m.Called(userID, name, doc)
}

func (m *Batch) DeleteDocument(userID, name, docID string) {
	m.Called(userID, name, docID)
}

func (m *Batch) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
