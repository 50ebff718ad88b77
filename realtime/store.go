// Package realtime is a path-addressed key-value store with live
// subscriptions and deferred writes that run when a connection goes away.
//
// A path such as "chats/a_b/messages/k1" names a leaf value. The leaves that
// share a parent ("chats/a_b/messages") are that parent's children, so every
// write notifies subscribers of the leaf itself and of its parent.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPath = errors.New("invalid realtime path")

// Event is delivered to subscribers of a path. Key is the child that changed
// when the subscription is on the parent, and empty when the subscribed path
// itself changed.
type Event struct {
	Path    string          `json:"path"`
	Key     string          `json:"key,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Deleted bool            `json:"deleted,omitempty"`
}

// Decode unmarshals the event value into dest.
func (e Event) Decode(dest interface{}) error {
	return json.Unmarshal(e.Value, dest)
}

type Store interface {
	Set(ctx context.Context, path string, value interface{}) error
	// Push stores value under a new time-ordered key below path and returns the key.
	Push(ctx context.Context, path string, value interface{}) (string, error)
	Get(ctx context.Context, path string, dest interface{}) (bool, error)
	Children(ctx context.Context, path string) (map[string]json.RawMessage, error)
	Remove(ctx context.Context, path string) error
	// Subscribe streams changes to path and its children until ctx is done.
	Subscribe(ctx context.Context, path string) (<-chan Event, error)

	// OnDisconnect registers a write that runs when connID disconnects.
	// ServerTimestamp values inside it resolve when the write runs.
	OnDisconnect(ctx context.Context, connID, path string, value interface{}) error
	CancelOnDisconnect(ctx context.Context, connID, path string) error
	// Heartbeat marks connID alive for ttl. fresh reports that connID had no
	// live registration, either because it is new or because a sweep already
	// fired its deferred writes.
	Heartbeat(ctx context.Context, connID string, ttl time.Duration) (fresh bool, err error)
	// Disconnect runs and clears connID's deferred writes.
	Disconnect(ctx context.Context, connID string) error
	// SweepExpired disconnects every connection whose heartbeat lapsed.
	SweepExpired(ctx context.Context) (int, error)

	Close() error
}

type serverValue struct {
	SV string `json:".sv"`
}

// ServerTimestamp is a placeholder the store replaces with its own clock, in
// milliseconds since the epoch, at the moment the write is applied.
var ServerTimestamp = serverValue{SV: "timestamp"}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func cleanPath(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", ErrInvalidPath
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || strings.ContainsAny(segment, ".#$[]") {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return path, nil
}

// split returns the parent and the last segment of a path.
func split(path string) (string, string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func encode(value interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode realtime value: %w", err)
	}
	return raw, nil
}

// resolve replaces every ServerTimestamp placeholder in raw with now.
func resolve(raw json.RawMessage, now time.Time) (json.RawMessage, error) {
	if !strings.Contains(string(raw), `".sv"`) {
		return raw, nil
	}

	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode realtime value: %w", err)
	}
	return encode(substitute(tree, now.UnixMilli()))
}

func substitute(node interface{}, millis int64) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		if len(v) == 1 && v[".sv"] == "timestamp" {
			return millis
		}
		for k, child := range v {
			v[k] = substitute(child, millis)
		}
		return v
	case []interface{}:
		for i, child := range v {
			v[i] = substitute(child, millis)
		}
		return v
	default:
		return node
	}
}
