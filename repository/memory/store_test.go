package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alightgram/model"
	"alightgram/repository"
)

func TestFollowEdgesReportChanges(t *testing.T) {
	ctx := context.Background()
	follows := NewStore().Follows()

	changed, err := follows.AddFollowing(ctx, "a", "b")
	if err != nil || !changed {
		t.Fatalf("first add: changed=%v err=%v", changed, err)
	}
	changed, err = follows.AddFollowing(ctx, "a", "b")
	if err != nil || changed {
		t.Fatalf("second add should be a no-op: changed=%v err=%v", changed, err)
	}

	ok, _ := follows.IsFollowing(ctx, "a", "b")
	if !ok {
		t.Fatalf("expected a to follow b")
	}

	changed, err = follows.RemoveFollowing(ctx, "a", "b")
	if err != nil || !changed {
		t.Fatalf("remove: changed=%v err=%v", changed, err)
	}
	changed, _ = follows.RemoveFollowing(ctx, "a", "b")
	if changed {
		t.Fatalf("second remove should be a no-op")
	}
}

func TestDeniedWritesFailOnlyForThatUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.DenyWrites("b")

	if _, err := store.Follows().AddFollowing(ctx, "a", "b"); err != nil {
		t.Fatalf("write to a's set: %v", err)
	}
	if _, err := store.Follows().AddFollower(ctx, "b", "a"); !errors.Is(err, repository.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	store.AllowWrites("b")
	if _, err := store.Follows().AddFollower(ctx, "b", "a"); err != nil {
		t.Fatalf("write after allow: %v", err)
	}
}

func TestCountersClampAtZero(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	if err := users.Create(ctx, &models.UserProfile{UID: "u1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.IncrementFollowers(ctx, "u1", -1); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	user, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.Followers == nil || *user.Followers != 0 {
		t.Fatalf("expected followers=0, got %v", user.Followers)
	}
	if err := users.IncrementFollowing(ctx, "missing", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProjectListingByVisibility(t *testing.T) {
	ctx := context.Background()
	projects := NewStore().Projects()

	_ = projects.Create(ctx, &models.Project{Title: "open", UserID: "o", IsPublic: true})
	_ = projects.Create(ctx, &models.Project{Title: "closed", UserID: "o"})
	_ = projects.Create(ctx, &models.Project{Title: "other", UserID: "x", IsPublic: true})

	all, _ := projects.ListByOwner(ctx, "o", false)
	if len(all) != 2 {
		t.Fatalf("expected 2 owner projects, got %d", len(all))
	}
	public, _ := projects.ListByOwner(ctx, "o", true)
	if len(public) != 1 || public[0].Title != "open" {
		t.Fatalf("expected only the public project, got %+v", public)
	}
	feed, _ := projects.ListPublic(ctx)
	if len(feed) != 2 {
		t.Fatalf("expected 2 public projects, got %d", len(feed))
	}
}

func TestCredentialsRejectDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	creds := NewStore().Credentials()

	if err := creds.Create(ctx, &models.Credential{UID: "u1", Email: "A@x.io", Provider: models.ProviderPassword}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := creds.Create(ctx, &models.Credential{UID: "u2", Email: "a@x.io", Provider: models.ProviderPassword})
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	cred, err := creds.GetByEmail(ctx, "a@X.io")
	if err != nil || cred.UID != "u1" {
		t.Fatalf("lookup: %+v %v", cred, err)
	}
}

func TestRevokedTokensExpire(t *testing.T) {
	ctx := context.Background()
	revocations := NewTokenRevocations()

	_ = revocations.Revoke(ctx, "live", time.Now().Add(time.Hour))
	_ = revocations.Revoke(ctx, "stale", time.Now().Add(-time.Second))

	if ok, _ := revocations.IsRevoked(ctx, "live"); !ok {
		t.Fatalf("expected live token revoked")
	}
	if ok, _ := revocations.IsRevoked(ctx, "stale"); ok {
		t.Fatalf("expected stale revocation to lapse")
	}
}
