package subscriber

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/events"
	"alightgram/model"
	"alightgram/realtime"
)

func newSubscriber() (*NotificationSubscriber, *realtime.MemoryStore) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := realtime.NewMemoryStore()
	return NewNotificationSubscriber(context.Background(), nil, store, logger), store
}

func TestFollowCreatesNotificationForFollowedUser(t *testing.T) {
	s, store := newSubscriber()
	ctx := context.Background()
	at := time.UnixMilli(1700000000000)

	if err := s.HandleUserFollowed(ctx, events.UserFollowedEvent{FollowerID: "u1", FollowedID: "u2", Timestamp: at}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	children, _ := store.Children(ctx, "notifications/u2")
	if len(children) != 1 {
		t.Fatalf("expected one notification, got %d", len(children))
	}
	for _, raw := range children {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if n.Type != models.NotificationTypeFollow || n.ActorID != "u1" || n.Timestamp != at.UnixMilli() {
			t.Fatalf("unexpected notification: %+v", n)
		}
	}
}

func TestSelfNotificationsAreSkipped(t *testing.T) {
	s, store := newSubscriber()
	ctx := context.Background()

	_ = s.HandleCommentAdded(ctx, events.CommentAddedEvent{ProjectID: "p1", ProjectOwner: "u1", CommentedBy: "u1"})
	_ = s.HandleProjectLiked(ctx, events.ProjectLikedEvent{ProjectID: "p1", OwnerID: "u1", LikedBy: "u1"})

	children, _ := store.Children(ctx, "notifications/u1")
	if len(children) != 0 {
		t.Fatalf("expected no notifications, got %d", len(children))
	}
}

func TestCommentAndLikeNotifyOwner(t *testing.T) {
	s, store := newSubscriber()
	ctx := context.Background()

	_ = s.HandleCommentAdded(ctx, events.CommentAddedEvent{ProjectID: "p1", ProjectOwner: "u1", CommentedBy: "u2"})
	_ = s.HandleProjectLiked(ctx, events.ProjectLikedEvent{ProjectID: "p1", OwnerID: "u1", LikedBy: "u3"})

	children, _ := store.Children(ctx, "notifications/u1")
	if len(children) != 2 {
		t.Fatalf("expected two notifications, got %d", len(children))
	}
}
