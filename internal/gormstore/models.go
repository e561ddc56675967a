package gormstore

import "time"

type userRecord struct {
	UserID      string `gorm:"primaryKey"`
	Collections string `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (userRecord) TableName() string { return "user_records" }

type document struct {
	UserID     string `gorm:"primaryKey"`
	Collection string `gorm:"primaryKey;index:idx_documents_collection"`
	DocID      string `gorm:"primaryKey;check:doc_id <> ''"`
	Front      string `gorm:"not null"`
	Back       string `gorm:"not null"`
	CreatedAt  time.Time
}

func (document) TableName() string { return "collection_documents" }
