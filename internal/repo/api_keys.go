package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

// HashAPIKey returns a stable SHA-256 hex digest for the provided key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// InsertAPIKey stores a hashed API key. KeyHash must already contain the hashed value.
func (r Repo) InsertAPIKey(ctx context.Context, tx *sql.Tx, key domain.APIKey) error {
	if key.ID == "" {
		return errors.New("id required")
	}
	if key.UserID == uuid.Nil {
		return errors.New("user_id required")
	}
	if key.KeyHash == "" {
		return errors.New("key_hash required")
	}
	doc, err := encodeDoc(key.APIKey)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO api_keys(id,user_id,key_hash,expires_at,created_at,data) VALUES (?,?,?,?,?,?)`,
		key.ID, key.UserID.String(), key.KeyHash, formatTime(key.ExpiresAt), formatTime(key.CreatedAt), doc)
	return mapWriteErr(err)
}

// GetAPIKeyByHash returns an API key by its hashed value.
func (r Repo) GetAPIKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var raw, keyHash string
	err := r.DB.QueryRowContext(ctx, `SELECT data, key_hash FROM api_keys WHERE key_hash=? LIMIT 1`, hash).Scan(&raw, &keyHash)
	if err == sql.ErrNoRows {
		return domain.APIKey{}, ErrNotFound
	}
	if err != nil {
		return domain.APIKey{}, err
	}
	key, err := decodeDoc[wsdecksdk.APIKey](raw)
	if err != nil {
		return domain.APIKey{}, err
	}
	return domain.APIKey{APIKey: key, KeyHash: keyHash}, nil
}

// TouchAPIKey records a use of the key.
func (r Repo) TouchAPIKey(ctx context.Context, key domain.APIKey, at time.Time) error {
	key.LastUsed = at
	key.UpdatedAt = at
	doc, err := encodeDoc(key.APIKey)
	if err != nil {
		return err
	}
	return expectOne(r.DB.ExecContext(ctx, `UPDATE api_keys SET data=? WHERE id=?`, doc, key.ID))
}

// ListAPIKeys returns the keys of a user, newest first.
func (r Repo) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]wsdecksdk.APIKey, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT data FROM api_keys WHERE user_id=? ORDER BY created_at DESC, id DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	return scanDocs[wsdecksdk.APIKey](rows)
}

// DeleteAPIKey deletes an API key by ID.
func (r Repo) DeleteAPIKey(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id required")
	}
	return expectOne(r.DB.ExecContext(ctx, `DELETE FROM api_keys WHERE id=?`, id))
}
