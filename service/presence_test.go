package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"alightgram/model"
)

type fakeConnection struct {
	id     string
	signal chan bool
}

func (c *fakeConnection) ID() string                { return c.id }
func (c *fakeConnection) Connectivity() <-chan bool { return c.signal }

func waitForState(t *testing.T, p *PresenceTracker, uid string, want models.PresenceState) *models.PresenceRecord {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, err := p.Status(context.Background(), uid)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if record.State == want {
			return record
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("uid %s never reached %s", uid, want)
	return nil
}

func TestPresenceFallsBackToOfflineOnDisconnect(t *testing.T) {
	env := newTestEnv()
	now := time.UnixMilli(1700000000000)
	env.realtime.Clock = func() time.Time { return now }
	presence := NewPresenceTracker(env.realtime, env.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := &fakeConnection{id: "c1", signal: make(chan bool, 1)}
	presence.SetupPresence(ctx, "u1", conn)
	conn.signal <- true

	online := waitForState(t, presence, "u1", models.PresenceOnline)
	if online.LastChanged != now.UnixMilli() {
		t.Fatalf("expected server timestamp, got %d", online.LastChanged)
	}

	// The client vanishes: only the store's deferred write runs.
	now = now.Add(time.Minute)
	if err := env.realtime.Disconnect(context.Background(), "c1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	offline := waitForState(t, presence, "u1", models.PresenceOffline)
	if offline.LastChanged != now.UnixMilli() {
		t.Fatalf("offline stamped at %d, want %d", offline.LastChanged, now.UnixMilli())
	}
}

func TestPresenceRearmsOnReconnect(t *testing.T) {
	env := newTestEnv()
	presence := NewPresenceTracker(env.realtime, env.logger)
	ctx := context.Background()

	if err := presence.Arm(ctx, "u1", "c1"); err != nil {
		t.Fatalf("arm: %v", err)
	}
	_ = env.realtime.Disconnect(ctx, "c1")
	waitForState(t, presence, "u1", models.PresenceOffline)

	if err := presence.Arm(ctx, "u1", "c2"); err != nil {
		t.Fatalf("re-arm: %v", err)
	}
	waitForState(t, presence, "u1", models.PresenceOnline)

	_ = env.realtime.Disconnect(ctx, "c2")
	waitForState(t, presence, "u1", models.PresenceOffline)
}

func TestPresenceSweepFiresFallback(t *testing.T) {
	env := newTestEnv()
	now := time.Now()
	env.realtime.Clock = func() time.Time { return now }
	presence := NewPresenceTracker(env.realtime, env.logger)
	ctx := context.Background()

	_ = presence.Arm(ctx, "u1", "c1")
	_, _ = env.realtime.Heartbeat(ctx, "c1", 45*time.Second)

	now = now.Add(time.Minute)
	if swept, err := env.realtime.SweepExpired(ctx); err != nil || swept != 1 {
		t.Fatalf("sweep: swept=%d err=%v", swept, err)
	}
	waitForState(t, presence, "u1", models.PresenceOffline)
}

func assertOffline(t *testing.T, p *PresenceTracker, uid string) {
	t.Helper()
	record, err := p.Status(context.Background(), uid)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if record.State != models.PresenceOffline {
		t.Fatalf("uid %s is %s, want offline", uid, record.State)
	}
}

func TestReleasedPresenceNeverComesBackOnline(t *testing.T) {
	env := newTestEnv()
	tracker := NewPresenceTracker(env.realtime, env.logger)

	for i := 0; i < 200; i++ {
		uid, connID := fmt.Sprintf("u%d", i), fmt.Sprintf("c%d", i)
		ctx, cancel := context.WithCancel(context.Background())

		conn := &fakeConnection{id: connID, signal: make(chan bool, 1)}
		presence := tracker.SetupPresence(ctx, uid, conn)
		conn.signal <- true

		presence.Release()
		cancel()
		if err := env.realtime.Disconnect(context.Background(), connID); err != nil {
			t.Fatalf("disconnect: %v", err)
		}
		assertOffline(t, tracker, uid)
	}

	// Any arm still in flight had to see the release.
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 200; i++ {
		assertOffline(t, tracker, fmt.Sprintf("u%d", i))
	}
}

func TestSignOutRightAfterConnectStaysOffline(t *testing.T) {
	env := newTestEnv()
	tracker := NewPresenceTracker(env.realtime, env.logger)

	for i := 0; i < 200; i++ {
		uid, connID := fmt.Sprintf("u%d", i), fmt.Sprintf("c%d", i)
		ctx, cancel := context.WithCancel(context.Background())

		conn := &fakeConnection{id: connID, signal: make(chan bool, 1)}
		presence := tracker.SetupPresence(ctx, uid, conn)
		conn.signal <- true

		if err := presence.SignOut(context.Background()); err != nil {
			t.Fatalf("sign out: %v", err)
		}
		cancel()
		assertOffline(t, tracker, uid)
	}

	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 200; i++ {
		assertOffline(t, tracker, fmt.Sprintf("u%d", i))
	}
}

func TestHeartbeatRearmsAfterSweep(t *testing.T) {
	env := newTestEnv()
	now := time.Now()
	env.realtime.Clock = func() time.Time { return now }
	tracker := NewPresenceTracker(env.realtime, env.logger)
	ctx := context.Background()

	conn := &fakeConnection{id: "c1", signal: make(chan bool, 1)}
	presence := tracker.SetupPresence(ctx, "u1", conn)
	conn.signal <- true
	waitForState(t, tracker, "u1", models.PresenceOnline)
	if err := presence.Heartbeat(ctx, 45*time.Second); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	// The heartbeat lapses while the socket is still up.
	now = now.Add(time.Minute)
	if swept, err := env.realtime.SweepExpired(ctx); err != nil || swept != 1 {
		t.Fatalf("sweep: swept=%d err=%v", swept, err)
	}
	waitForState(t, tracker, "u1", models.PresenceOffline)

	if err := presence.Heartbeat(ctx, 45*time.Second); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	waitForState(t, tracker, "u1", models.PresenceOnline)

	// The fallback is armed again.
	if err := env.realtime.Disconnect(ctx, "c1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	waitForState(t, tracker, "u1", models.PresenceOffline)
}

func TestGoOfflineCancelsFallback(t *testing.T) {
	env := newTestEnv()
	presence := NewPresenceTracker(env.realtime, env.logger)
	ctx := context.Background()

	_ = presence.Arm(ctx, "u1", "c1")
	if err := presence.GoOffline(ctx, "u1", "c1"); err != nil {
		t.Fatalf("go offline: %v", err)
	}
	waitForState(t, presence, "u1", models.PresenceOffline)

	_ = presence.Arm(ctx, "u1", "c2")
	_ = env.realtime.Disconnect(ctx, "c1")
	waitForState(t, presence, "u1", models.PresenceOnline)
}

func TestOnlineStatuses(t *testing.T) {
	env := newTestEnv()
	presence := NewPresenceTracker(env.realtime, env.logger)
	ctx := context.Background()

	_ = presence.Arm(ctx, "u1", "c1")
	_ = presence.Arm(ctx, "u2", "c2")
	_ = env.realtime.Disconnect(ctx, "c2")

	statuses, err := presence.OnlineStatuses(ctx)
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if !statuses["u1"] || statuses["u2"] {
		t.Fatalf("unexpected statuses: %v", statuses)
	}
}
