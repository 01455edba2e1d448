package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
)

// EnsureCredentialSchema creates the pinterest_accounts table for PostgreSQL.
func EnsureCredentialSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS pinterest_accounts (
        username TEXT PRIMARY KEY,
        access_token TEXT NOT NULL,
        refresh_token TEXT NOT NULL DEFAULT '',
        token_type TEXT NOT NULL DEFAULT '',
        scope TEXT NOT NULL DEFAULT '',
        expires_at TIMESTAMPTZ,
        refresh_token_expires_at TIMESTAMPTZ,
        refresh_after TIMESTAMPTZ NOT NULL,
        is_active BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create pinterest_accounts table: %w", err)
	}
	return nil
}

type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) repository.ICredentialStore {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) ListCredentials(ctx context.Context) ([]model.Credential, string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM pinterest_accounts ORDER BY username`)
	if err != nil {
		return nil, "", err
	}
	return scanCredentials(rows)
}

func (r *CredentialRepository) UpsertCredential(ctx context.Context, c model.Credential) error {
	now := time.Now().UTC()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	q := `INSERT INTO pinterest_accounts (username, access_token, refresh_token, token_type, scope, expires_at, refresh_token_expires_at, refresh_after, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		  ON CONFLICT (username) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_type=EXCLUDED.token_type,
			scope=EXCLUDED.scope,
			expires_at=EXCLUDED.expires_at,
			refresh_token_expires_at=EXCLUDED.refresh_token_expires_at,
			refresh_after=EXCLUDED.refresh_after,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, c.Username, c.AccessToken, c.RefreshToken, c.TokenType, c.Scope,
		nullTime(c.ExpiresAt), nullTime(c.RefreshTokenExpiresAt), c.RefreshAfter, now, c.UpdatedAt)
	return err
}

func (r *CredentialRepository) DeleteCredential(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pinterest_accounts WHERE username=$1`, username)
	return err
}

func (r *CredentialRepository) SetActive(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pinterest_accounts SET is_active = (username = $1)`, username)
	return err
}
