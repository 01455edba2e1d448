package persistence

import (
	"database/sql"

	"pin-scheduler/domain/model"
)

const credentialColumns = `username, access_token, refresh_token, token_type, scope, expires_at, refresh_token_expires_at, refresh_after, is_active, updated_at`

func scanCredentials(rows *sql.Rows) ([]model.Credential, string, error) {
	defer rows.Close()
	creds := []model.Credential{}
	active := ""
	for rows.Next() {
		var c model.Credential
		var exp, refreshExp sql.NullTime
		var isActive bool
		if err := rows.Scan(&c.Username, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Scope, &exp, &refreshExp, &c.RefreshAfter, &isActive, &c.UpdatedAt); err != nil {
			return nil, "", err
		}
		if exp.Valid {
			v := exp.Time
			c.ExpiresAt = &v
		}
		if refreshExp.Valid {
			v := refreshExp.Time
			c.RefreshTokenExpiresAt = &v
		}
		if isActive {
			active = c.Username
		}
		creds = append(creds, c)
	}
	return creds, active, rows.Err()
}
