package usecase

import (
	"context"
	"sync"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
)

// ITokenProvider resolves the access token used to publish for an account.
// An empty username means the active account.
type ITokenProvider interface {
	AccessToken(username string) (string, error)
}

type IAccountRegistry interface {
	ITokenProvider
	Load(ctx context.Context) error
	Register(ctx context.Context, c model.Credential) error
	Remove(ctx context.Context, username string) error
	Switch(ctx context.Context, username string) error
	Active() (model.Credential, bool)
	Get(username string) (model.Credential, bool)
	List() model.AccountSet
	Consume(ctx context.Context, events <-chan CredentialEvent)
}

// CredentialEvent reports the outcome of one background token refresh.
type CredentialEvent struct {
	Username   string
	Credential model.Credential
	Err        error
}

type accountRegistry struct {
	mu    sync.RWMutex
	set   model.AccountSet
	store repository.ICredentialStore
}

func NewAccountRegistry(store repository.ICredentialStore) IAccountRegistry {
	return &accountRegistry{set: model.NewAccountSet(""), store: store}
}

// Load replaces the in-memory set with the persisted accounts.
func (r *accountRegistry) Load(ctx context.Context) error {
	creds, active, err := r.store.ListCredentials(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.set = model.NewAccountSet(active, creds...)
	r.mu.Unlock()
	return nil
}

func (r *accountRegistry) Register(ctx context.Context, c model.Credential) error {
	if c.Username == "" || c.AccessToken == "" {
		return apperror.Validation("Username and access token are required")
	}
	if err := r.store.UpsertCredential(ctx, c); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.set.ActiveUsername()
	r.set = r.set.With(c)
	return r.persistActive(ctx, before)
}

func (r *accountRegistry) Remove(ctx context.Context, username string) error {
	r.mu.RLock()
	_, ok := r.set.Get(username)
	r.mu.RUnlock()
	if !ok {
		return apperror.NotFound("Account not found: " + username)
	}
	if err := r.store.DeleteCredential(ctx, username); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.set.ActiveUsername()
	r.set = r.set.Without(username)
	return r.persistActive(ctx, before)
}

func (r *accountRegistry) Switch(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := r.set.Switch(username)
	if !ok {
		return apperror.NotFound("Account not found: " + username)
	}
	if err := r.store.SetActive(ctx, username); err != nil {
		return err
	}
	r.set = next
	return nil
}

// persistActive writes the active account when it differs from before. Callers hold mu.
func (r *accountRegistry) persistActive(ctx context.Context, before string) error {
	if r.set.ActiveUsername() == before {
		return nil
	}
	return r.store.SetActive(ctx, r.set.ActiveUsername())
}

func (r *accountRegistry) Active() (model.Credential, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Active()
}

func (r *accountRegistry) Get(username string) (model.Credential, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Get(username)
}

func (r *accountRegistry) List() model.AccountSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

func (r *accountRegistry) AccessToken(username string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if username == "" {
		c, ok := r.set.Active()
		if !ok {
			return "", apperror.Auth("No Pinterest account connected")
		}
		return c.AccessToken, nil
	}
	c, ok := r.set.Get(username)
	if !ok {
		return "", apperror.Auth("No credentials for account " + username)
	}
	return c.AccessToken, nil
}

// Consume applies refresh outcomes until events is closed or ctx is done.
// A failed refresh drops the account.
func (r *accountRegistry) Consume(ctx context.Context, events <-chan CredentialEvent) {
	lg := logger.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Err != nil {
				lg.WithField("username", evt.Username).WithField("error", evt.Err).Warn("Token refresh failed, removing account")
				if err := r.Remove(ctx, evt.Username); err != nil {
					lg.WithField("username", evt.Username).WithField("error", err).Error("Error while remove account")
				}
				continue
			}
			if err := r.Register(ctx, evt.Credential); err != nil {
				lg.WithField("username", evt.Username).WithField("error", err).Error("Error while store refreshed credential")
				continue
			}
			lg.WithField("username", evt.Username).Info("Token refreshed")
		}
	}
}
