package repository

import (
	"context"

	"pin-scheduler/domain/model"
)

// IPinStore holds scheduled pins. Update is last-writer-wins; Claim is the only
// conditional write and is what keeps a pin from being published twice.
type IPinStore interface {
	List(ctx context.Context) ([]model.ScheduledPin, error)
	Get(ctx context.Context, id string) (*model.ScheduledPin, error)
	Append(ctx context.Context, pin model.ScheduledPin) error
	Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error)
	Delete(ctx context.Context, id string) error
	// Claim moves the pin to `to` only if its current status is one of `from`.
	Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error)
}
