package usecase

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/csvimport"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
)

const (
	firstPostHour   = 9
	postingHours    = 12
	localTimeLayout = "2006-01-02T15:04"
)

type IPinScheduler interface {
	Schedule(ctx context.Context, req dto.SchedulePinRequest) (*model.ScheduledPin, error)
	ListPins(ctx context.Context) ([]model.ScheduledPin, error)
	GetPin(ctx context.Context, id string) (*model.ScheduledPin, error)
	UpdatePin(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error)
	DeletePin(ctx context.Context, id string) error
	PublishNow(ctx context.Context, id string) (*dto.PublishOutcome, error)
	PlanBulk(ctx context.Context, csv io.Reader, postsPerDay int, boardIDs []string) (*dto.BulkPlan, error)
	ScheduleBulk(ctx context.Context, plan *dto.BulkPlan, account string) *dto.BulkScheduleResponse
}

type SchedulerConfig struct {
	MinLead        time.Duration
	MaxPostsPerDay int
	Location       *time.Location
}

type pinScheduler struct {
	store     repository.IPinStore
	publisher IScheduledPublisher
	cfg       SchedulerConfig
	now       utils.Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPinScheduler builds the scheduling use case. rnd drives the random minute
// and board of bulk plans; nil seeds one from the clock.
func NewPinScheduler(store repository.IPinStore, publisher IScheduledPublisher, cfg SchedulerConfig, now utils.Clock, rnd *rand.Rand) IPinScheduler {
	if now == nil {
		now = utils.GetCurrentTime
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(now().UnixNano()))
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxPostsPerDay < 1 {
		cfg.MaxPostsPerDay = 15
	}
	return &pinScheduler{store: store, publisher: publisher, cfg: cfg, now: now, rnd: rnd}
}

func (s *pinScheduler) Schedule(ctx context.Context, req dto.SchedulePinRequest) (*model.ScheduledPin, error) {
	if err := validateSchedule(req); err != nil {
		return nil, err
	}
	at, err := s.parseTime(req.ScheduledTime)
	if err != nil {
		return nil, apperror.Validation("Invalid schedule time").Wrap(err)
	}
	now := s.now()
	if at.Before(now.Add(s.cfg.MinLead)) {
		return nil, apperror.Validationf("Scheduled time must be at least %d minutes in the future", int(s.cfg.MinLead.Minutes()))
	}

	pin := model.ScheduledPin{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Link:          strings.TrimSpace(req.Link),
		ImageURL:      req.ImageURL,
		BoardID:       req.BoardID,
		ScheduledTime: at.UTC(),
		Status:        model.PinStatusScheduled,
		Account:       req.Account,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Append(ctx, pin); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while append pin")
		return nil, err
	}
	logger.GetLogger().WithField("pin_id", pin.ID).WithField("scheduled_time", pin.ScheduledTime).Info("Pin scheduled")
	return &pin, nil
}

func validateSchedule(req dto.SchedulePinRequest) error {
	var errs []string
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, "Title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs = append(errs, "Description is required")
	}
	if req.BoardID == "" {
		errs = append(errs, "Board selection is required")
	}
	if req.ScheduledTime == "" {
		errs = append(errs, "Schedule time is required")
	}
	if req.ImageURL == "" {
		errs = append(errs, "Image is required")
	}
	if len(errs) > 0 {
		return apperror.Validation(strings.Join(errs, "; "))
	}
	return nil
}

// parseTime accepts RFC3339 with any offset, or a zone-less local time in the
// configured location.
func (s *pinScheduler) parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localTimeLayout, value, s.cfg.Location)
}

func (s *pinScheduler) ListPins(ctx context.Context) ([]model.ScheduledPin, error) {
	return s.store.List(ctx)
}

func (s *pinScheduler) GetPin(ctx context.Context, id string) (*model.ScheduledPin, error) {
	return s.store.Get(ctx, id)
}

func (s *pinScheduler) UpdatePin(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperror.Validationf("Invalid status: %s", *patch.Status)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, patch)
}

// validatePatch rejects edits that would blank a field a schedule requires.
func validatePatch(patch model.PinPatch) error {
	blank := func(v *string) bool { return v != nil && strings.TrimSpace(*v) == "" }
	var errs []string
	if blank(patch.Title) {
		errs = append(errs, "Title is required")
	}
	if blank(patch.Description) {
		errs = append(errs, "Description is required")
	}
	if blank(patch.BoardID) {
		errs = append(errs, "Board selection is required")
	}
	if patch.ScheduledTime != nil && patch.ScheduledTime.IsZero() {
		errs = append(errs, "Schedule time is required")
	}
	if blank(patch.ImageURL) {
		errs = append(errs, "Image is required")
	}
	if len(errs) > 0 {
		return apperror.Validation(strings.Join(errs, "; "))
	}
	return nil
}

func (s *pinScheduler) DeletePin(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *pinScheduler) PublishNow(ctx context.Context, id string) (*dto.PublishOutcome, error) {
	pin, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch pin.Status {
	case model.PinStatusPublished:
		return nil, apperror.Conflict("Pin already published")
	case model.PinStatusPublishing:
		return nil, apperror.Conflict("Pin is already being published")
	}
	from := []model.PinStatus{model.PinStatusPending, model.PinStatusScheduled, model.PinStatusFailed}
	ok, err := s.store.Claim(ctx, id, from, model.PinStatusPublishing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("Pin is already being published")
	}
	claimed := model.StatusPatch(model.PinStatusPublishing).Apply(*pin, s.now())
	outcome := s.publisher.PublishClaimed(ctx, claimed)
	return &outcome, nil
}

// PlanBulk spreads the CSV rows over days starting at the next full hour:
// postsPerDay per day from 09:00 at floor(12/postsPerDay)-hour steps, each
// with a random minute and a random board.
func (s *pinScheduler) PlanBulk(ctx context.Context, csv io.Reader, postsPerDay int, boardIDs []string) (*dto.BulkPlan, error) {
	parsed, err := csvimport.Parse(csv)
	if err != nil {
		return nil, err
	}
	if len(boardIDs) == 0 {
		return nil, apperror.Validation("No boards available. Please make sure you have at least one board.")
	}

	perDay := min(s.cfg.MaxPostsPerDay, max(1, postsPerDay))
	step := postingHours / perDay
	loc := s.cfg.Location
	now := s.now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, loc)

	plan := &dto.BulkPlan{Pins: make([]dto.PlannedPin, 0, len(parsed.Pins)), Skipped: parsed.Skipped}
	for i, row := range parsed.Pins {
		day := start.AddDate(0, 0, i/perDay)
		hour := firstPostHour + (i%perDay)*step
		minute, board := s.pick(60, boardIDs)
		at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		plan.Pins = append(plan.Pins, dto.PlannedPin{
			Row: row.Row,
			SchedulePinRequest: dto.SchedulePinRequest{
				Title:         row.Title,
				Description:   row.Description,
				Link:          row.Link,
				ImageURL:      row.ImageURL,
				BoardID:       board,
				ScheduledTime: at.Format(time.RFC3339),
			},
		})
	}
	return plan, nil
}

func (s *pinScheduler) pick(minutes int, boards []string) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(minutes), boards[s.rnd.Intn(len(boards))]
}

func (s *pinScheduler) ScheduleBulk(ctx context.Context, plan *dto.BulkPlan, account string) *dto.BulkScheduleResponse {
	resp := &dto.BulkScheduleResponse{Pins: []model.ScheduledPin{}, Skipped: plan.Skipped}
	for _, planned := range plan.Pins {
		req := planned.SchedulePinRequest
		if req.Account == "" {
			req.Account = account
		}
		pin, err := s.Schedule(ctx, req)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.RowError{Row: planned.Row, Error: err.Error()})
			continue
		}
		resp.Pins = append(resp.Pins, *pin)
	}
	resp.Scheduled = len(resp.Pins)
	resp.Message = fmt.Sprintf("Successfully scheduled %d pins", resp.Scheduled)
	return resp
}
