package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/credential"
	"github.com/allevo/cloud-store/internal/model"
)

// Credential repository errors.
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrUsernameExists     = errors.New("username already exists")
)

// CreateCredential inserts a new credential row.
func (r *Repository) CreateCredential(ctx context.Context, c *model.Credential) error {
	query := `
		INSERT INTO credentials (id, username, password_hash, name, surname, groups, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Username,
		c.PasswordHash,
		c.Name,
		c.Surname,
		pq.Array(c.Groups),
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// UpdateCredential replaces hash, names and groups of an existing username.
func (r *Repository) UpdateCredential(ctx context.Context, c *model.Credential) error {
	query := `
		UPDATE credentials
		SET password_hash = $2, name = $3, surname = $4, groups = $5, updated_at = $6
		WHERE username = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		c.Username,
		c.PasswordHash,
		c.Name,
		c.Surname,
		pq.Array(c.Groups),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// GetCredentialByUsername retrieves a stored credential.
func (r *Repository) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	query := `
		SELECT id, username, password_hash, name, surname, groups
		FROM credentials
		WHERE username = $1
	`

	var c model.Credential
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&c.ID,
		&c.Username,
		&c.PasswordHash,
		&c.Name,
		&c.Surname,
		&c.Groups,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &c, nil
}

// FindCredentials implements credential.Lookup against the credentials table.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (r *Repository) FindCredentials(ctx context.Context, username, password string) (*model.UserProfile, error) {
	c, err := r.GetCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return nil, credential.ErrNotFound
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(password, c.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for %s: %w", username, err)
	}
	if !ok {
		return nil, credential.ErrNotFound
	}

	if auth.NeedsRehash(c.PasswordHash, auth.DefaultPasswordParams) {
		// A failed upgrade leaves the old hash in place, which still verifies.
		if hash, err := auth.HashPassword(password); err == nil {
			_ = r.updatePasswordHash(ctx, c.ID, hash)
		}
	}

	return c.Profile(), nil
}

func (r *Repository) updatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE credentials SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

var _ credential.Lookup = (*Repository)(nil)
