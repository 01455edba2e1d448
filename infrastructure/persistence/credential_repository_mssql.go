package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
)

type CredentialRepositoryMSSQL struct{ db *sql.DB }

func NewCredentialRepositoryMSSQL(db *sql.DB) repository.ICredentialStore {
	return &CredentialRepositoryMSSQL{db: db}
}

// EnsureCredentialSchemaMSSQL creates the pinterest_accounts table for SQL Server if it does not exist.
func EnsureCredentialSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.pinterest_accounts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[pinterest_accounts] (
        username NVARCHAR(128) NOT NULL PRIMARY KEY,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
        token_type NVARCHAR(32) NOT NULL DEFAULT '',
        scope NVARCHAR(512) NOT NULL DEFAULT '',
        expires_at DATETIME2 NULL,
        refresh_token_expires_at DATETIME2 NULL,
        refresh_after DATETIME2 NOT NULL,
        is_active BIT NOT NULL DEFAULT 0,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create pinterest_accounts (mssql): %w", err)
	}
	return nil
}

func (r *CredentialRepositoryMSSQL) ListCredentials(ctx context.Context) ([]model.Credential, string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM dbo.[pinterest_accounts] ORDER BY username`)
	if err != nil {
		return nil, "", err
	}
	return scanCredentials(rows)
}

func (r *CredentialRepositoryMSSQL) UpsertCredential(ctx context.Context, c model.Credential) error {
	now := time.Now().UTC()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	// MERGE upsert by username
	q := `MERGE dbo.[pinterest_accounts] AS target
USING (VALUES (@p1)) AS src(username)
ON target.username = src.username
WHEN MATCHED THEN UPDATE SET
    access_token=@p2,
    refresh_token=@p3,
    token_type=@p4,
    scope=@p5,
    expires_at=@p6,
    refresh_token_expires_at=@p7,
    refresh_after=@p8,
    updated_at=@p10
WHEN NOT MATCHED THEN
    INSERT (username, access_token, refresh_token, token_type, scope, expires_at, refresh_token_expires_at, refresh_after, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10);`
	_, err := r.db.ExecContext(ctx, q, c.Username, c.AccessToken, c.RefreshToken, c.TokenType, c.Scope,
		nullTime(c.ExpiresAt), nullTime(c.RefreshTokenExpiresAt), c.RefreshAfter, now, c.UpdatedAt)
	return err
}

func (r *CredentialRepositoryMSSQL) DeleteCredential(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[pinterest_accounts] WHERE username=@p1`, username)
	return err
}

func (r *CredentialRepositoryMSSQL) SetActive(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[pinterest_accounts] SET is_active = CASE WHEN username=@p1 THEN 1 ELSE 0 END`, username)
	return err
}
