package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/utils"
)

// PinRepositoryMemory keeps pins in process memory; nothing survives a restart.
type PinRepositoryMemory struct {
	mu    sync.RWMutex
	pins  map[string]model.ScheduledPin
	order []string
	now   utils.Clock
}

func NewPinRepositoryMemory(now utils.Clock) repository.IPinStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &PinRepositoryMemory{pins: make(map[string]model.ScheduledPin), now: now}
}

func (r *PinRepositoryMemory) List(ctx context.Context) ([]model.ScheduledPin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Map(r.order, func(id string, _ int) model.ScheduledPin { return r.pins[id] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (r *PinRepositoryMemory) Get(ctx context.Context, id string) (*model.ScheduledPin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pin, ok := r.pins[id]
	if !ok {
		return nil, errPinNotFound(id)
	}
	return &pin, nil
}

func (r *PinRepositoryMemory) Append(ctx context.Context, pin model.ScheduledPin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pins[pin.ID]; exists {
		return apperror.Conflict("pin " + pin.ID + " already exists")
	}
	stampCreated(&pin, r.now())
	r.pins[pin.ID] = pin
	r.order = append(r.order, pin.ID)
	return nil
}

func (r *PinRepositoryMemory) Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pin, ok := r.pins[id]
	if !ok {
		return nil, errPinNotFound(id)
	}
	next := patch.Apply(pin, r.now())
	r.pins[id] = next
	return &next, nil
}

func (r *PinRepositoryMemory) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pins[id]; !ok {
		return errPinNotFound(id)
	}
	delete(r.pins, id)
	r.order = lo.Without(r.order, id)
	return nil
}

func (r *PinRepositoryMemory) Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pin, ok := r.pins[id]
	if !ok {
		return false, errPinNotFound(id)
	}
	if !lo.Contains(from, pin.Status) {
		return false, nil
	}
	r.pins[id] = model.StatusPatch(to).Apply(pin, r.now())
	return true, nil
}

func errPinNotFound(id string) error {
	return apperror.NotFound("pin " + id + " not found")
}

func stampCreated(pin *model.ScheduledPin, now time.Time) {
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = now
	}
	pin.UpdatedAt = now
	pin.Normalize()
}
