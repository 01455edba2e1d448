package usecase

import (
	"context"
	"time"

	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
)

// TokenRefresher periodically refreshes credentials whose RefreshAfter has
// passed and reports each outcome on Events.
type TokenRefresher struct {
	broker       IOAuthBroker
	accounts     IAccountRegistry
	interval     time.Duration
	refreshAfter time.Duration
	now          utils.Clock
	events       chan CredentialEvent
}

func NewTokenRefresher(broker IOAuthBroker, accounts IAccountRegistry, interval, refreshAfter time.Duration, now utils.Clock) *TokenRefresher {
	if now == nil {
		now = utils.GetCurrentTime
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenRefresher{
		broker:       broker,
		accounts:     accounts,
		interval:     interval,
		refreshAfter: refreshAfter,
		now:          now,
		events:       make(chan CredentialEvent, 16),
	}
}

func (t *TokenRefresher) Events() <-chan CredentialEvent {
	return t.events
}

// Run checks once immediately and then on every tick until ctx is done.
// Events is closed when Run returns.
func (t *TokenRefresher) Run(ctx context.Context) error {
	defer close(t.events)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Check(ctx)
		}
	}
}

// Check refreshes every due credential and returns how many were attempted.
func (t *TokenRefresher) Check(ctx context.Context) int {
	now := t.now()
	attempted := 0
	for _, c := range t.accounts.List().Credentials() {
		if !c.NeedsRefresh(now) {
			continue
		}
		attempted++
		evt := t.refresh(ctx, c, now)
		select {
		case t.events <- evt:
		case <-ctx.Done():
			return attempted
		}
	}
	if attempted > 0 {
		logger.GetLogger().WithField("count", attempted).Info("Token refresh check finished")
	}
	return attempted
}

func (t *TokenRefresher) refresh(ctx context.Context, c model.Credential, now time.Time) CredentialEvent {
	resp, err := t.broker.Refresh(ctx, c.RefreshToken)
	if err != nil {
		return CredentialEvent{Username: c.Username, Err: err}
	}
	next := resp.Token.Credential(c.Username, now, t.refreshAfter)
	if next.RefreshToken == "" {
		next.RefreshToken = c.RefreshToken
		next.RefreshTokenExpiresAt = c.RefreshTokenExpiresAt
	}
	return CredentialEvent{Username: c.Username, Credential: next}
}
