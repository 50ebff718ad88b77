package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/events"
	"alightgram/model"
	"alightgram/realtime"
	"alightgram/repository/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	follows  []events.UserFollowedEvent
	created  []events.ProjectCreatedEvent
	likes    []events.ProjectLikedEvent
	comments []events.CommentAddedEvent
}

func (p *recordingPublisher) PublishUserFollowed(e events.UserFollowedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.follows = append(p.follows, e)
	return nil
}

func (p *recordingPublisher) PublishProjectCreated(e events.ProjectCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *recordingPublisher) PublishProjectLiked(e events.ProjectLikedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.likes = append(p.likes, e)
	return nil
}

func (p *recordingPublisher) PublishCommentAdded(e events.CommentAddedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comments = append(p.comments, e)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type testEnv struct {
	docs      *memory.Store
	realtime  *realtime.MemoryStore
	publisher *recordingPublisher
	logger    *logrus.Logger
}

func newTestEnv() *testEnv {
	return &testEnv{
		docs:      memory.NewStore(),
		realtime:  realtime.NewMemoryStore(),
		publisher: &recordingPublisher{},
		logger:    quietLogger(),
	}
}

func (e *testEnv) addUser(t *testing.T, uid, name string) {
	t.Helper()
	zero := int64(0)
	err := e.docs.Users().Create(context.Background(), &models.UserProfile{
		UID:         uid,
		DisplayName: name,
		Followers:   &zero,
		Following:   &zero,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", uid, err)
	}
}

func (e *testEnv) counts(t *testing.T, uid string) (int64, int64) {
	t.Helper()
	user, err := e.docs.Users().Get(context.Background(), uid)
	if err != nil {
		t.Fatalf("get user %s: %v", uid, err)
	}
	return user.FollowersCount(), user.FollowingCount()
}
