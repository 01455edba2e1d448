package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"pin-scheduler/infrastructure/logger"
)

func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type IBoardCache interface {
	Get(ctx context.Context, accessToken string) ([]byte, bool)
	Set(ctx context.Context, accessToken string, body []byte)
}

// BoardCache keeps board listings per access token for a short TTL. A nil
// client turns every call into a miss.
type BoardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBoardCache(client *redis.Client, ttl time.Duration) IBoardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &BoardCache{client: client, ttl: ttl}
}

func boardKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return "pin-scheduler:boards:" + hex.EncodeToString(sum[:])
}

func (c *BoardCache) Get(ctx context.Context, accessToken string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, boardKey(accessToken)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.GetLogger().WithField("error", err).Warn("board cache read failed")
		}
		return nil, false
	}
	return val, true
}

func (c *BoardCache) Set(ctx context.Context, accessToken string, body []byte) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, boardKey(accessToken), body, c.ttl).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("board cache write failed")
	}
}
