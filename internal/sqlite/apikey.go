package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/flashdeck/internal/store"
)

// ErrDuplicateKey is returned when an API key is registered twice.
var ErrDuplicateKey = errors.New("api key already registered")

// APIKeyRepository stores hashed API keys and resolves them to users
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create registers token for userID. Only the token hash is stored.
func (r *APIKeyRepository) Create(ctx context.Context, token, userID, description string) error {
	query := `
		INSERT INTO api_keys (key_hash, user_id, created_at, description)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, HashToken(token), userID, time.Now(), description)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	if err != nil {
		return wrapErr("create api key", err)
	}
	return nil
}

// ResolveUser returns the user owning token and stamps its last use.
func (r *APIKeyRepository) ResolveUser(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)

	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", wrapErr("resolve api key", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), hash); err != nil {
		return "", wrapErr("touch api key", err)
	}
	return userID, nil
}

// Revoke deletes a key.
func (r *APIKeyRepository) Revoke(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE key_hash = ?`, HashToken(token))
	if err != nil {
		return wrapErr("revoke api key", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// HashToken returns the hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
