package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by UpdateJSON when the key does not exist.
var ErrNotFound = errors.New("redis key not found")

var ErrConflict = errors.New("redis key changed concurrently")

const maxTxRetries = 8

type Config struct {
	Address  string
	Password string
	DB       int
}

func New(ctx context.Context, cfg Config, log *logrus.Logger) (*redis.Client, error) {
	log.Info(fmt.Sprintf("Connecting to Redis at %s...", cfg.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis")
	return client, nil
}

// UpdateFunc receives the current value of a key and returns the value to
// store. Returning a nil slice leaves the key untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Update applies fn to key inside a WATCH/MULTI transaction, retrying when
// another client modifies the key in between. The key's TTL is reset to
// ttl on every write.
func Update(ctx context.Context, client *redis.Client, key string, ttl time.Duration, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return ErrConflict
}
