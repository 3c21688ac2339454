package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/jackc/pgx/v5"
)

// GetUser returns the private account fields for a public key.
func (s *Store) GetUser(ctx context.Context, publicKey string) (*model.User, error) {
	query := `
		SELECT public_key, username, email, encrypted_key
		FROM users
		WHERE public_key = $1
	`
	var u model.User
	err := s.QueryRow(ctx, query, publicKey).Scan(&u.PublicKey, &u.Username, &u.Email, &u.EncryptedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// PutUser inserts or updates a user's account fields.
func (s *Store) PutUser(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (public_key, username, email, encrypted_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (public_key) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			encrypted_key = EXCLUDED.encrypted_key
	`
	if err := s.Exec(ctx, query, u.PublicKey, u.Username, u.Email, u.EncryptedKey); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}
