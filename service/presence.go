package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/model"
	"alightgram/realtime"
)

const statusRoot = "status"

// Connection is one client link to the realtime store. Connectivity yields
// true each time the link is (re)established and false when it drops.
type Connection interface {
	ID() string
	Connectivity() <-chan bool
}

type presenceWrite struct {
	State       models.PresenceState `json:"state"`
	LastChanged interface{}          `json:"last_changed"`
}

// PresenceTracker publishes online/offline state under status/{uid}. The
// offline state is armed as a deferred write, so the store applies it even
// when the client vanishes without a word.
type PresenceTracker struct {
	store  realtime.Store
	logger *logrus.Entry
}

func NewPresenceTracker(store realtime.Store, logger *logrus.Logger) *PresenceTracker {
	return &PresenceTracker{store: store, logger: logger.WithField("component", "presence")}
}

func StatusPath(uid string) string {
	return realtime.Join(statusRoot, uid)
}

// SetupPresence follows conn's connectivity until it closes or ctx is done,
// re-arming the offline fallback on every reconnect. Writes for conn stop once
// the returned Presence is signed out or released.
func (p *PresenceTracker) SetupPresence(ctx context.Context, uid string, conn Connection) *Presence {
	presence := &Presence{tracker: p, uid: uid, connID: conn.ID()}

	go func() {
		signal := conn.Connectivity()
		for {
			select {
			case <-ctx.Done():
				return
			case connected, ok := <-signal:
				if !ok {
					return
				}
				if connected {
					presence.arm(ctx)
				}
			}
		}
	}()
	return presence
}

// Presence is one connection's claim on a user's status. Its writes are
// serialized, and none happen after SignOut or Release return.
type Presence struct {
	tracker *PresenceTracker
	uid     string
	connID  string

	mu       sync.Mutex
	released bool
}

func (pr *Presence) arm(ctx context.Context) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.released || ctx.Err() != nil {
		return
	}
	if err := pr.tracker.Arm(ctx, pr.uid, pr.connID); err != nil {
		pr.tracker.logger.WithError(err).WithField("uid", pr.uid).Error("Failed to publish presence")
	}
}

// Heartbeat keeps the connection registered. If a sweep already fired the
// offline fallback while the connection was still alive, it arms it again.
func (pr *Presence) Heartbeat(ctx context.Context, ttl time.Duration) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	fresh, err := pr.tracker.store.Heartbeat(ctx, pr.connID, ttl)
	if err != nil || !fresh || pr.released {
		return err
	}
	pr.tracker.logger.WithFields(logrus.Fields{"uid": pr.uid, "conn_id": pr.connID}).Info("Re-arming swept presence")
	return pr.tracker.Arm(ctx, pr.uid, pr.connID)
}

// SignOut releases the claim and writes offline right away.
func (pr *Presence) SignOut(ctx context.Context) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.released = true
	return pr.tracker.GoOffline(ctx, pr.uid, pr.connID)
}

// Release stops further writes without touching the status. Disconnecting
// the connection afterwards fires whatever fallback is armed.
func (pr *Presence) Release() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.released = true
}

// Arm registers the offline fallback for connID, and only then marks uid
// online.
func (p *PresenceTracker) Arm(ctx context.Context, uid, connID string) error {
	path := StatusPath(uid)

	offline := presenceWrite{State: models.PresenceOffline, LastChanged: realtime.ServerTimestamp}
	if err := p.store.OnDisconnect(ctx, connID, path, offline); err != nil {
		return err
	}

	online := presenceWrite{State: models.PresenceOnline, LastChanged: realtime.ServerTimestamp}
	return p.store.Set(ctx, path, online)
}

// GoOffline is the explicit sign-out path: it drops the fallback and writes
// offline right away.
func (p *PresenceTracker) GoOffline(ctx context.Context, uid, connID string) error {
	path := StatusPath(uid)
	if err := p.store.CancelOnDisconnect(ctx, connID, path); err != nil {
		return err
	}
	return p.store.Set(ctx, path, presenceWrite{State: models.PresenceOffline, LastChanged: realtime.ServerTimestamp})
}

func (p *PresenceTracker) Status(ctx context.Context, uid string) (*models.PresenceRecord, error) {
	var record models.PresenceRecord
	ok, err := p.store.Get(ctx, StatusPath(uid), &record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &models.PresenceRecord{State: models.PresenceOffline}, nil
	}
	return &record, nil
}

// OnlineStatuses maps every uid with a presence record to whether it is online.
func (p *PresenceTracker) OnlineStatuses(ctx context.Context) (map[string]bool, error) {
	children, err := p.store.Children(ctx, statusRoot)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]bool, len(children))
	for uid, raw := range children {
		var record models.PresenceRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			p.logger.WithError(err).WithField("uid", uid).Warn("Skipping malformed presence record")
			continue
		}
		statuses[uid] = record.State == models.PresenceOnline
	}
	return statuses, nil
}

// RunSweeper fires the deferred writes of connections whose heartbeat
// lapsed, every interval until ctx is done.
func (p *PresenceTracker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := p.store.SweepExpired(ctx)
			if err != nil {
				p.logger.WithError(err).Error("Presence sweep failed")
				continue
			}
			if swept > 0 {
				p.logger.WithField("connections", swept).Info("Swept expired connections")
			}
		}
	}
}
