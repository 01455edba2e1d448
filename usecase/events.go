package usecase

import (
	"context"
	"errors"

	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
)

type eventFanout []repository.IEventPublisher

// NewEventFanout delivers every event to each non-nil publisher and joins their errors.
func NewEventFanout(publishers ...repository.IEventPublisher) repository.IEventPublisher {
	out := make(eventFanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f eventFanout) PublishPinEvent(ctx context.Context, evt model.PinEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishPinEvent(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopEventPublisher struct{}

// NewNoopEventPublisher only logs events. Used when events.driver is none.
func NewNoopEventPublisher() repository.IEventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) PublishPinEvent(_ context.Context, evt model.PinEvent) error {
	logger.GetLogger().WithField("pin_id", evt.PinID).WithField("status", evt.Status).Debug("Pin event")
	return nil
}
