package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const subscriberBuffer = 128

type memorySubscriber struct {
	path string
	ch   chan Event
}

// MemoryStore keeps the tree in process. Clock can be replaced in tests.
type MemoryStore struct {
	Clock func() time.Time

	mu          sync.Mutex
	children    map[string]map[string]json.RawMessage
	subscribers map[*memorySubscriber]struct{}
	deferred    map[string]map[string]json.RawMessage
	heartbeats  map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Clock:       time.Now,
		children:    make(map[string]map[string]json.RawMessage),
		subscribers: make(map[*memorySubscriber]struct{}),
		deferred:    make(map[string]map[string]json.RawMessage),
		heartbeats:  make(map[string]time.Time),
	}
}

func (s *MemoryStore) Set(ctx context.Context, path string, value interface{}) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(path, raw)
}

func (s *MemoryStore) setLocked(path string, raw json.RawMessage) error {
	raw, err := resolve(raw, s.Clock())
	if err != nil {
		return err
	}

	parent, key := split(path)
	leaves, ok := s.children[parent]
	if !ok {
		leaves = make(map[string]json.RawMessage)
		s.children[parent] = leaves
	}
	leaves[key] = raw

	s.notifyLocked(path, raw, false)
	return nil
}

func (s *MemoryStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, Join(path, key.String()), value); err != nil {
		return "", err
	}
	return key.String(), nil
}

func (s *MemoryStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	parent, key := split(path)
	raw, ok := s.children[parent][key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *MemoryStore) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]json.RawMessage, len(s.children[path]))
	for k, v := range s.children[path] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, key := split(path)
	delete(s.children[parent], key)
	delete(s.children, path)
	s.notifyLocked(path, nil, true)
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan Event, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	sub := &memorySubscriber{path: path, ch: make(chan Event, subscriberBuffer)}
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, sub)
		close(sub.ch)
		s.mu.Unlock()
	}()

	return sub.ch, nil
}

// notifyLocked fans an event out to subscribers of path and of its parent.
// A subscriber that is not keeping up loses the event.
func (s *MemoryStore) notifyLocked(path string, raw json.RawMessage, deleted bool) {
	parent, key := split(path)
	for sub := range s.subscribers {
		var ev Event
		switch sub.path {
		case path:
			ev = Event{Path: path, Value: raw, Deleted: deleted}
		case parent:
			ev = Event{Path: parent, Key: key, Value: raw, Deleted: deleted}
		default:
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (s *MemoryStore) OnDisconnect(ctx context.Context, connID, path string, value interface{}) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writes, ok := s.deferred[connID]
	if !ok {
		writes = make(map[string]json.RawMessage)
		s.deferred[connID] = writes
	}
	writes[path] = raw
	return nil
}

func (s *MemoryStore) CancelOnDisconnect(ctx context.Context, connID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deferred[connID], path)
	return nil
}

func (s *MemoryStore) Heartbeat(ctx context.Context, connID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.heartbeats[connID]
	s.heartbeats[connID] = s.Clock().Add(ttl)
	return !known, nil
}

func (s *MemoryStore) Disconnect(ctx context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectLocked(connID)
}

func (s *MemoryStore) disconnectLocked(connID string) error {
	writes := s.deferred[connID]
	delete(s.deferred, connID)
	delete(s.heartbeats, connID)

	for path, raw := range writes {
		if err := s.setLocked(path, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock()
	swept := 0
	for connID, expiresAt := range s.heartbeats {
		if now.Before(expiresAt) {
			continue
		}
		if err := s.disconnectLocked(connID); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
