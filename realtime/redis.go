package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix      = "rt:node:"
	channelPrefix  = "rt:ch:"
	deferredPrefix = "rt:ondisconnect:"
	heartbeatsKey  = "rt:heartbeats"
)

// RedisStore keeps the children of each path in one hash, fans changes out
// over pub/sub and keeps deferred writes per connection, so any gateway
// instance can fire the deferred writes of a connection another one held.
type RedisStore struct {
	Clock func() time.Time

	client *redis.Client
	logger *logrus.Entry
}

func NewRedisStore(client *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		Clock:  time.Now,
		client: client,
		logger: logger.WithField("component", "realtime"),
	}
}

func hashKey(path string) string {
	return keyPrefix + path
}

func channel(path string) string {
	return channelPrefix + path
}

func deferredKey(connID string) string {
	return deferredPrefix + connID
}

func (s *RedisStore) Set(ctx context.Context, path string, value interface{}) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return s.write(ctx, path, raw)
}

func (s *RedisStore) write(ctx context.Context, path string, raw json.RawMessage) error {
	raw, err := resolve(raw, s.Clock())
	if err != nil {
		return err
	}

	parent, key := split(path)
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey(parent), key, []byte(raw))
		s.publish(ctx, pipe, path, raw, false)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, pipe redis.Pipeliner, path string, raw json.RawMessage, deleted bool) {
	parent, key := split(path)

	self, _ := json.Marshal(Event{Path: path, Value: raw, Deleted: deleted})
	pipe.Publish(ctx, channel(path), self)

	if parent != "" {
		child, _ := json.Marshal(Event{Path: parent, Key: key, Value: raw, Deleted: deleted})
		pipe.Publish(ctx, channel(parent), child)
	}
}

func (s *RedisStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, Join(path, key.String()), value); err != nil {
		return "", err
	}
	return key.String(), nil
}

func (s *RedisStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}

	parent, key := split(path)
	raw, err := s.client.HGet(ctx, hashKey(parent), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *RedisStore) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	values, err := s.client.HGetAll(ctx, hashKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

func (s *RedisStore) Remove(ctx context.Context, path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}

	parent, key := split(path)
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, hashKey(parent), key)
		pipe.Del(ctx, hashKey(path))
		s.publish(ctx, pipe, path, nil, true)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, path string) (<-chan Event, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	pubsub := s.client.Subscribe(ctx, channel(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", path, err)
	}

	events := make(chan Event, subscriberBuffer)
	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.logger.WithError(err).WithField("path", path).Warn("Dropping malformed realtime event")
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func (s *RedisStore) OnDisconnect(ctx context.Context, connID, path string, value interface{}) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, deferredKey(connID), path, []byte(raw)).Err(); err != nil {
		return fmt.Errorf("failed to register deferred write: %w", err)
	}
	return nil
}

func (s *RedisStore) CancelOnDisconnect(ctx context.Context, connID, path string) error {
	if err := s.client.HDel(ctx, deferredKey(connID), path).Err(); err != nil {
		return fmt.Errorf("failed to cancel deferred write: %w", err)
	}
	return nil
}

func (s *RedisStore) Heartbeat(ctx context.Context, connID string, ttl time.Duration) (bool, error) {
	expiresAt := s.Clock().Add(ttl).UnixMilli()
	added, err := s.client.ZAdd(ctx, heartbeatsKey, redis.Z{Score: float64(expiresAt), Member: connID}).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return added == 1, nil
}

// Disconnect takes the deferred writes and drops them in one MULTI, so a
// connection's writes fire once even when a sweeper races an explicit close.
func (s *RedisStore) Disconnect(ctx context.Context, connID string) error {
	var writes *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writes = pipe.HGetAll(ctx, deferredKey(connID))
		pipe.Del(ctx, deferredKey(connID))
		pipe.ZRem(ctx, heartbeatsKey, connID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to take deferred writes: %w", err)
	}

	for path, raw := range writes.Val() {
		if err := s.write(ctx, path, json.RawMessage(raw)); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) SweepExpired(ctx context.Context) (int, error) {
	max := strconv.FormatInt(s.Clock().UnixMilli(), 10)
	expired, err := s.client.ZRangeByScore(ctx, heartbeatsKey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list expired connections: %w", err)
	}

	for _, connID := range expired {
		if err := s.Disconnect(ctx, connID); err != nil {
			return 0, err
		}
		s.logger.WithField("conn_id", connID).Info("Fired deferred writes for expired connection")
	}
	return len(expired), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
