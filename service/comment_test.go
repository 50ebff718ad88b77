package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alightgram/model"
	"alightgram/repository"
)

func TestAddAndListComments(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u2", "Grace")
	id := seedProject(t, env, "u1", "Glow", true, time.Now())
	comments := NewCommentService(env.realtime, env.docs.Users(), NewVisibility(env.docs.Projects()), env.publisher, env.logger)
	ctx := context.Background()

	step := int64(0)
	comments.now = func() time.Time { step++; return time.UnixMilli(1000 + step) }

	author := &models.Principal{UID: "u2", DisplayName: "token name"}
	first, err := comments.AddComment(ctx, author, id, " nice ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Text != "nice" || first.UserName != "Grace" || first.ID == "" {
		t.Fatalf("unexpected comment: %+v", first)
	}
	_, _ = comments.AddComment(ctx, author, id, "second")

	list, err := comments.ListComments(ctx, "u3", id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Text != "nice" || list[1].Text != "second" || list[0].ID != first.ID {
		t.Fatalf("unexpected listing: %+v", list)
	}

	if len(env.publisher.comments) != 2 || env.publisher.comments[0].ProjectOwner != "u1" {
		t.Fatalf("unexpected comment events: %+v", env.publisher.comments)
	}
}

func TestCommentsRejectBlankTextAndHiddenProjects(t *testing.T) {
	env := newTestEnv()
	hidden := seedProject(t, env, "u1", "Hidden", false, time.Now())
	comments := NewCommentService(env.realtime, env.docs.Users(), NewVisibility(env.docs.Projects()), env.publisher, env.logger)
	ctx := context.Background()
	author := &models.Principal{UID: "u2"}

	if _, err := comments.AddComment(ctx, author, hidden, "   "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := comments.AddComment(ctx, author, hidden, "hi"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := comments.ListComments(ctx, "u2", hidden); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommentSubscribersSeeNewComments(t *testing.T) {
	env := newTestEnv()
	id := seedProject(t, env, "u1", "Glow", true, time.Now())
	comments := NewCommentService(env.realtime, env.docs.Users(), NewVisibility(env.docs.Projects()), env.publisher, env.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	live, err := env.realtime.Subscribe(ctx, CommentsPath(id))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	added, _ := comments.AddComment(ctx, &models.Principal{UID: "u2"}, id, "live")

	select {
	case ev := <-live:
		if ev.Key != added.ID {
			t.Fatalf("event key %q, want %q", ev.Key, added.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no live event")
	}
}
