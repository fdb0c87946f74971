package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/queueless/queueless-go/internal/models"
)

// Keys under which the session is persisted.
const (
	keyUserToken = "userToken"
	keyUserData  = "userData"
)

// CredentialStore persists the authenticated session across restarts.
// It holds exactly one {user, token} pair. When a credential secret is
// configured the token is encrypted at rest; the user payload is plain
// JSON either way.
type CredentialStore struct {
	db     *DB
	cipher *tokenCipher // nil disables at-rest encryption
}

// NewCredentialStore creates a credential store. secret may be empty,
// in which case tokens are stored in the clear.
func NewCredentialStore(db *DB, secret string) *CredentialStore {
	s := &CredentialStore{db: db}
	if secret != "" {
		s.cipher = newTokenCipher(secret)
	}
	return s
}

// Save persists the pair, overwriting any prior value. Both keys are
// written in one transaction so a reader never observes one without
// the other.
func (s *CredentialStore) Save(user *models.User, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	stored := token
	if s.cipher != nil {
		stored, err = s.cipher.seal(token)
		if err != nil {
			return fmt.Errorf("failed to encrypt token: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	for _, kv := range [][2]string{
		{keyUserToken, stored},
		{keyUserData, string(data)},
	} {
		if _, err := tx.Exec(upsertCredential, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to save %s: %w", kv[0], err)
		}
	}

	return tx.Commit()
}

const upsertCredential = `
INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`

// Load returns the persisted pair, or (nil, "") when no usable session
// is stored. A missing key, an undecodable user payload, a user payload
// failing structural validation, or an undecryptable token all count as
// corruption: the store purges both entries and reports no session.
// Only an I/O failure surfaces as an error.
func (s *CredentialStore) Load() (*models.User, string, error) {
	token, okToken, err := s.get(keyUserToken)
	if err != nil {
		return nil, "", err
	}
	data, okData, err := s.get(keyUserData)
	if err != nil {
		return nil, "", err
	}

	if !okToken && !okData {
		return nil, "", nil
	}
	if !okToken || !okData {
		// Partial state; never expose half a session.
		return nil, "", s.purge()
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, "", s.purge()
	}
	if !user.Valid() {
		return nil, "", s.purge()
	}

	if s.cipher != nil {
		token, err = s.cipher.open(token)
		if err != nil {
			return nil, "", s.purge()
		}
	}

	return &user, token, nil
}

// Token returns the persisted bearer token, or "" when none is stored.
func (s *CredentialStore) Token() (string, error) {
	user, token, err := s.Load()
	if err != nil || user == nil {
		return "", err
	}
	return token, nil
}

// Clear removes both entries in one statement. Idempotent; clearing an
// empty store is not an error.
func (s *CredentialStore) Clear() error {
	if _, err := s.db.Exec(
		"DELETE FROM credentials WHERE key IN (?, ?)", keyUserToken, keyUserData,
	); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// ClearEach deletes each key with its own statement. Fallback path for
// when the combined Clear fails; a key that is already gone is skipped
// without error.
func (s *CredentialStore) ClearEach() error {
	var firstErr error
	for _, key := range []string{keyUserToken, keyUserData} {
		if _, err := s.db.Exec("DELETE FROM credentials WHERE key = ?", key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return firstErr
}

func (s *CredentialStore) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *CredentialStore) purge() error {
	if err := s.Clear(); err != nil {
		return err
	}
	return nil
}
