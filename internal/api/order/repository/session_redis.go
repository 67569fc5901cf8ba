package orderRepository

import (
	"Replicaide/internal/api/order"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	redisPkg "Replicaide/pkg/redis"
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sessionKeyPrefix = "voice_session:"

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// NewRedisSessionStore shares sessions between instances. Updates run in a
// WATCH/MULTI transaction on the session key.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, log *logrus.Logger) SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &redisSessionStore{client: client, ttl: ttl, log: log}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *redisSessionStore) Create(ctx context.Context, s entity.VoiceSession) error {
	data, err := jsoniter.Marshal(s)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": s.ID,
			"error":      err.Error(),
		}).Error("Redis error when creating session")
		return err
	}
	return nil
}

func (r *redisSessionStore) Get(ctx context.Context, id string) (entity.VoiceSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.VoiceSession{}, order.ErrSessionNotFound
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Error("Redis error when reading session")
		return entity.VoiceSession{}, err
	}

	var s entity.VoiceSession
	if err := jsoniter.Unmarshal(data, &s); err != nil {
		return entity.VoiceSession{}, err
	}
	return s, nil
}

func (r *redisSessionStore) Update(ctx context.Context, id string, fn MutateFunc) (entity.VoiceSession, bool, error) {
	var (
		result  entity.VoiceSession
		changed bool
	)

	err := redisPkg.Update(ctx, r.client, sessionKey(id), r.ttl, func(current []byte) ([]byte, error) {
		var s entity.VoiceSession
		if err := jsoniter.Unmarshal(current, &s); err != nil {
			return nil, err
		}

		next := cloneSession(s)
		ok, err := fn(&next)
		if err != nil {
			return nil, err
		}
		changed = ok
		if !ok {
			result = s
			return nil, nil
		}
		result = next
		return jsoniter.Marshal(next)
	})
	if errors.Is(err, redisPkg.ErrNotFound) {
		return entity.VoiceSession{}, false, order.ErrSessionNotFound
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Session update failed")
		return entity.VoiceSession{}, false, err
	}

	return result, changed, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Error("Redis error when deleting session")
		return err
	}
	if n == 0 {
		return order.ErrSessionNotFound
	}
	return nil
}
