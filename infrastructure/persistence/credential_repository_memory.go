package persistence

import (
	"context"
	"sort"
	"sync"

	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
)

type CredentialRepositoryMemory struct {
	mu     sync.RWMutex
	creds  map[string]model.Credential
	active string
}

func NewCredentialRepositoryMemory() repository.ICredentialStore {
	return &CredentialRepositoryMemory{creds: make(map[string]model.Credential)}
}

func (r *CredentialRepositoryMemory) ListCredentials(ctx context.Context) ([]model.Credential, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Credential, 0, len(r.creds))
	for _, c := range r.creds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, r.active, nil
}

func (r *CredentialRepositoryMemory) UpsertCredential(ctx context.Context, c model.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[c.Username] = c
	return nil
}

func (r *CredentialRepositoryMemory) DeleteCredential(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.creds, username)
	if r.active == username {
		r.active = ""
	}
	return nil
}

func (r *CredentialRepositoryMemory) SetActive(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = username
	return nil
}
