package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
)

const noPinsMessage = "No pins to publish at this time"

type IScheduledPublisher interface {
	// RunOnce publishes every due pin and reports per-pin outcomes.
	RunOnce(ctx context.Context) (*dto.RunSummary, error)
	// PublishClaimed publishes a pin already moved to publishing and writes the outcome back.
	PublishClaimed(ctx context.Context, pin model.ScheduledPin) dto.PublishOutcome
}

type scheduledPublisher struct {
	store       repository.IPinStore
	worker      IPublishWorker
	tokens      ITokenProvider
	events      repository.IEventPublisher
	now         utils.Clock
	concurrency int
}

func NewScheduledPublisher(store repository.IPinStore, worker IPublishWorker, tokens ITokenProvider, events repository.IEventPublisher, now utils.Clock, concurrency int) IScheduledPublisher {
	if now == nil {
		now = utils.GetCurrentTime
	}
	if events == nil {
		events = NewNoopEventPublisher()
	}
	if concurrency < 1 {
		concurrency = 8
	}
	return &scheduledPublisher{store: store, worker: worker, tokens: tokens, events: events, now: now, concurrency: concurrency}
}

type attempt struct {
	index  int
	pin    model.ScheduledPin
	result *PublishResult
	err    error
}

func (s *scheduledPublisher) RunOnce(ctx context.Context) (*dto.RunSummary, error) {
	lg := logger.GetLogger()
	pins, err := s.store.List(ctx)
	if err != nil {
		lg.WithField("error", err).Error("Error while list scheduled pins")
		return nil, err
	}
	now := s.now()
	due := lo.Filter(pins, func(p model.ScheduledPin, _ int) bool { return p.IsDue(now) })

	claimed := make([]model.ScheduledPin, 0, len(due))
	for _, pin := range due {
		ok, err := s.store.Claim(ctx, pin.ID, []model.PinStatus{model.PinStatusScheduled}, model.PinStatusPublishing)
		if err != nil {
			lg.WithField("pin_id", pin.ID).WithField("error", err).Error("Error while claim pin")
			continue
		}
		if !ok {
			continue
		}
		pin = model.StatusPatch(model.PinStatusPublishing).Apply(pin, now)
		s.emit(ctx, pin)
		claimed = append(claimed, pin)
	}
	if len(claimed) == 0 {
		return &dto.RunSummary{Message: noPinsMessage}, nil
	}

	// Attempts outlive the trigger's context; only the write-back order matters.
	work := context.WithoutCancel(ctx)
	p := pool.NewWithResults[attempt]().WithMaxGoroutines(s.concurrency)
	for i, pin := range claimed {
		p.Go(func() attempt {
			res, err := s.attempt(work, pin)
			return attempt{index: i, pin: pin, result: res, err: err}
		})
	}
	attempts := p.Wait()
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].index < attempts[j].index })

	summary := &dto.RunSummary{Results: make([]dto.PublishOutcome, 0, len(attempts))}
	for _, a := range attempts {
		outcome := s.record(work, a.pin, a.result, a.err)
		if outcome.Success {
			summary.Published++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, outcome)
	}
	summary.Message = fmt.Sprintf("Published %d pins", summary.Published)
	lg.WithField("published", summary.Published).WithField("failed", summary.Failed).Info("Scheduled publish run finished")
	return summary, nil
}

func (s *scheduledPublisher) PublishClaimed(ctx context.Context, pin model.ScheduledPin) dto.PublishOutcome {
	work := context.WithoutCancel(ctx)
	res, err := s.attempt(work, pin)
	return s.record(work, pin, res, err)
}

func (s *scheduledPublisher) attempt(ctx context.Context, pin model.ScheduledPin) (*PublishResult, error) {
	token, err := s.tokens.AccessToken(pin.Account)
	if err != nil {
		return nil, err
	}
	return s.worker.Publish(ctx, pin, token)
}

// record writes the outcome to the store. A failed write is logged and the
// outcome is still reported.
func (s *scheduledPublisher) record(ctx context.Context, pin model.ScheduledPin, res *PublishResult, err error) dto.PublishOutcome {
	lg := logger.GetLogger().WithField("pin_id", pin.ID)
	now := s.now()
	outcome := dto.PublishOutcome{ID: pin.ID}
	var patch model.PinPatch
	if err != nil {
		lg.WithField("error", err).Error("Error while publish pin")
		outcome.Error = err.Error()
		patch = model.FailedPatch(err.Error())
	} else {
		outcome.Success = true
		outcome.PinterestID = res.PinterestID
		patch = model.PublishedPatch(res.PinterestID, now)
	}

	updated, werr := s.store.Update(ctx, pin.ID, patch)
	if werr != nil {
		lg.WithField("error", werr).Error("Error while update pin status")
		applied := patch.Apply(pin, now)
		updated = &applied
	}
	s.emit(ctx, *updated)
	return outcome
}

func (s *scheduledPublisher) emit(ctx context.Context, pin model.ScheduledPin) {
	if err := s.events.PublishPinEvent(ctx, model.NewPinEvent(pin, s.now())); err != nil {
		logger.GetLogger().WithField("pin_id", pin.ID).WithField("error", err).Warn("Error while publish pin event")
	}
}
