package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/utils"
)

func newRedisPinRepo(t *testing.T) (*PinRepositoryRedis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPinRepositoryRedis(client, utils.FixedClock(fixedNow)).(*PinRepositoryRedis), mr
}

func TestPinRepositoryRedis_CRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisPinRepo(t)

	require.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "b", Status: model.PinStatusScheduled, ScheduledTime: fixedNow.Add(2 * time.Hour)}))
	require.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "a", Status: model.PinStatusScheduled, ScheduledTime: fixedNow.Add(time.Hour)}))
	assert.True(t, apperror.IsKind(repo.Append(ctx, model.ScheduledPin{ID: "a"}), apperror.KindConflict))

	pins, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, "a", pins[0].ID)
	assert.True(t, fixedNow.Equal(pins[0].CreatedAt))

	updated, err := repo.Update(ctx, "a", model.FailedPatch("boom"))
	require.NoError(t, err)
	assert.Equal(t, model.PinStatusFailed, updated.Status)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, "boom", *got.Error)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.True(t, apperror.IsKind(repo.Delete(ctx, "a"), apperror.KindNotFound))
	_, err = repo.Update(ctx, "missing", model.StatusPatch(model.PinStatusScheduled))
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPinRepositoryRedis_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisPinRepo(t)
	require.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "p", Status: model.PinStatusScheduled}))

	var wg sync.WaitGroup
	wins := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Claim(ctx, "p", []model.PinStatus{model.PinStatusScheduled}, model.PinStatusPublishing)
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	total := 0
	for ok := range wins {
		if ok {
			total++
		}
	}
	assert.Equal(t, 1, total)

	got, err := repo.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, model.PinStatusPublishing, got.Status)
}

func TestPinRepositoryRedis_ClaimRejectsOtherStatus(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisPinRepo(t)
	require.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "p", Status: model.PinStatusPublished}))

	ok, err := repo.Claim(ctx, "p", []model.PinStatus{model.PinStatusScheduled, model.PinStatusFailed}, model.PinStatusPublishing)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, model.PinStatusPublished, got.Status)

	_, err = repo.Claim(ctx, "missing", []model.PinStatus{model.PinStatusScheduled}, model.PinStatusPublishing)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPinRepositoryRedis_ClaimIgnoresWritesToOtherPins(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisPinRepo(t)
	require.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "p", Status: model.PinStatusScheduled}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "other-" + string(rune('a'+n)), Status: model.PinStatusScheduled}))
		}(i)
	}
	ok, err := repo.Claim(ctx, "p", []model.PinStatus{model.PinStatusScheduled}, model.PinStatusPublishing)
	wg.Wait()

	require.NoError(t, err)
	assert.True(t, ok)
	pins, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, pins, 21)
}

func TestPinRepositoryRedis_ClaimSkipsChangedValue(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisPinRepo(t)
	require.NoError(t, repo.Append(ctx, model.ScheduledPin{ID: "p", Status: model.PinStatusScheduled}))
	stale := mr.HGet(redisPinsKey, "p")

	_, err := repo.Update(ctx, "p", model.StatusPatch(model.PinStatusPublished))
	require.NoError(t, err)

	swapped, err := claimScript.Run(ctx, repo.client, []string{redisPinsKey}, "p", stale, "{}").Int()
	require.NoError(t, err)
	assert.Equal(t, 0, swapped)
}

func TestPinRepositoryRedis_SurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	repo := NewPinRepositoryRedis(client, nil)
	ctx := context.Background()

	_, err := repo.List(ctx)
	assert.Error(t, err)
	assert.Error(t, repo.Append(ctx, model.ScheduledPin{ID: "p1"}))
	_, err = repo.Claim(ctx, "p1", []model.PinStatus{model.PinStatusScheduled}, model.PinStatusPublishing)
	assert.Error(t, err)
}
