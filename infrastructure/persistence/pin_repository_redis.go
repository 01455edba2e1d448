package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/utils"
)

const redisPinsKey = "pin-scheduler:pins"

// claimScript swaps the stored JSON only if it still matches what the caller read.
var claimScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
	return 1
end
return 0
`)

const claimAttempts = 5

// PinRepositoryRedis keeps every pin as a JSON value in one hash keyed by pin id.
type PinRepositoryRedis struct {
	client *redis.Client
	key    string
	now    utils.Clock
}

func NewPinRepositoryRedis(client *redis.Client, now utils.Clock) repository.IPinStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &PinRepositoryRedis{client: client, key: redisPinsKey, now: now}
}

func (r *PinRepositoryRedis) List(ctx context.Context) ([]model.ScheduledPin, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	pins := make([]model.ScheduledPin, 0, len(values))
	for _, raw := range values {
		var pin model.ScheduledPin
		if err := json.Unmarshal([]byte(raw), &pin); err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	sort.SliceStable(pins, func(i, j int) bool { return pins[i].ScheduledTime.Before(pins[j].ScheduledTime) })
	return pins, nil
}

func (r *PinRepositoryRedis) Get(ctx context.Context, id string) (*model.ScheduledPin, error) {
	pin, _, err := r.get(ctx, id)
	return pin, err
}

func (r *PinRepositoryRedis) get(ctx context.Context, id string) (*model.ScheduledPin, string, error) {
	raw, err := r.client.HGet(ctx, r.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", errPinNotFound(id)
	}
	if err != nil {
		return nil, "", err
	}
	var pin model.ScheduledPin
	if err := json.Unmarshal([]byte(raw), &pin); err != nil {
		return nil, "", err
	}
	return &pin, raw, nil
}

func (r *PinRepositoryRedis) Append(ctx context.Context, pin model.ScheduledPin) error {
	stampCreated(&pin, r.now())
	data, err := json.Marshal(pin)
	if err != nil {
		return err
	}
	added, err := r.client.HSetNX(ctx, r.key, pin.ID, data).Result()
	if err != nil {
		return err
	}
	if !added {
		return apperror.Conflict("pin " + pin.ID + " already exists")
	}
	return nil
}

func (r *PinRepositoryRedis) Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*current, r.now())
	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := r.client.HSet(ctx, r.key, id, data).Err(); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *PinRepositoryRedis) Delete(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, r.key, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return errPinNotFound(id)
	}
	return nil
}

// Claim swaps the pin's value with a compare-and-set script, so writes to
// other pins in the hash never abort the transition.
func (r *PinRepositoryRedis) Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		pin, raw, err := r.get(ctx, id)
		if err != nil {
			return false, err
		}
		if !lo.Contains(from, pin.Status) {
			return false, nil
		}
		next := model.StatusPatch(to).Apply(*pin, r.now())
		data, err := json.Marshal(next)
		if err != nil {
			return false, err
		}
		swapped, err := claimScript.Run(ctx, r.client, []string{r.key}, id, raw, string(data)).Int()
		if err != nil {
			return false, err
		}
		if swapped == 1 {
			return true, nil
		}
	}
	return false, fmt.Errorf("pin %s kept changing during claim", id)
}
