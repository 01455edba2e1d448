package repository

import (
	"context"

	"pin-scheduler/domain/model"
)

type ICredentialStore interface {
	// ListCredentials returns every stored account and the persisted active username.
	ListCredentials(ctx context.Context) ([]model.Credential, string, error)
	UpsertCredential(ctx context.Context, c model.Credential) error
	DeleteCredential(ctx context.Context, username string) error
	SetActive(ctx context.Context, username string) error
}
