package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sspzz/burn-stats/internal/store"
)

// Redis is a store.BlobStore keeping each dataset under "burns:<bucket>/<name>"
// with a sibling ":written" key holding the unix write time.
type Redis struct {
	cli *redis.Client
}

func NewRedis(addr string, db int) *Redis {
	cli := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	return &Redis{cli: cli}
}

func (r *Redis) Close() error { return r.cli.Close() }

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error { return r.cli.Ping(ctx).Err() }

const keyPrefix = "burns:"

func blobKey(k store.Key) string    { return keyPrefix + k.String() }
func writtenKey(k store.Key) string { return keyPrefix + k.String() + ":written" }

func (r *Redis) Get(ctx context.Context, key store.Key) ([]byte, error) {
	b, err := r.cli.Get(ctx, blobKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Redis) Put(ctx context.Context, key store.Key, data []byte) error {
	pipe := r.cli.TxPipeline()
	pipe.Set(ctx, blobKey(key), data, 0)
	pipe.Set(ctx, writtenKey(key), strconv.FormatInt(time.Now().Unix(), 10), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// WrittenAt reports the last Put time for key.
func (r *Redis) WrittenAt(ctx context.Context, key store.Key) (time.Time, error) {
	s, err := r.cli.Get(ctx, writtenKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, store.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0).UTC(), nil
}
