package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"alightgram/repository"
)

func newSocial(env *testEnv) *SocialService {
	return NewSocialService(env.docs.Users(), env.docs.Follows(), env.publisher, env.logger)
}

func TestFollowBothSides(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	social := newSocial(env)
	ctx := context.Background()

	result := social.Follow(ctx, "u1", "u2")
	if result.Outcome != OutcomeFull || result.Err() != nil {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, following := env.counts(t, "u1"); following != 1 {
		t.Fatalf("expected u1.following == 1, got %d", following)
	}
	if followers, _ := env.counts(t, "u2"); followers != 1 {
		t.Fatalf("expected u2.followers == 1, got %d", followers)
	}
	if ok, _ := social.IsFollowing(ctx, "u1", "u2"); !ok {
		t.Fatalf("expected isFollowing(u1, u2)")
	}
	if len(env.publisher.follows) != 1 {
		t.Fatalf("expected one follow event, got %d", len(env.publisher.follows))
	}
}

func TestSelfFollowIsNoop(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	social := newSocial(env)

	if result := social.Follow(context.Background(), "u1", "u1"); result.Outcome != OutcomeNoop {
		t.Fatalf("expected noop, got %v", result.Outcome)
	}
	if ok, _ := social.IsFollowing(context.Background(), "u1", "u1"); ok {
		t.Fatalf("self edge created")
	}
	if followers, following := env.counts(t, "u1"); followers != 0 || following != 0 {
		t.Fatalf("counters changed: %d/%d", followers, following)
	}
}

func TestFollowThenUnfollowRestores(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	social := newSocial(env)
	ctx := context.Background()

	_, before := env.counts(t, "u1")
	social.Follow(ctx, "u1", "u2")
	result := social.Unfollow(ctx, "u1", "u2")
	if result.Outcome != OutcomeFull {
		t.Fatalf("unexpected unfollow result: %+v", result)
	}

	if ok, _ := social.IsFollowing(ctx, "u1", "u2"); ok {
		t.Fatalf("expected not following after unfollow")
	}
	if _, after := env.counts(t, "u1"); after != before {
		t.Fatalf("following counter %d, want %d", after, before)
	}
	if followers, _ := env.counts(t, "u2"); followers != 0 {
		t.Fatalf("u2 followers %d, want 0", followers)
	}
}

func TestFollowToleratesOtherSideDenial(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	env.docs.DenyWrites("u2")
	social := newSocial(env)
	ctx := context.Background()

	result := social.Follow(ctx, "u1", "u2")
	if result.Outcome != OutcomePartial {
		t.Fatalf("expected partial, got %v", result.Outcome)
	}
	if result.Err() != nil {
		t.Fatalf("partial follow must succeed, got %v", result.Err())
	}
	if !errors.Is(result.OtherErr, repository.ErrPermissionDenied) {
		t.Fatalf("expected permission denied on other side, got %v", result.OtherErr)
	}

	if ok, _ := social.IsFollowing(ctx, "u1", "u2"); !ok {
		t.Fatalf("self-side edge missing")
	}
	if _, following := env.counts(t, "u1"); following != 1 {
		t.Fatalf("self-side counter %d, want 1", following)
	}
	if followers, _ := env.counts(t, "u2"); followers != 0 {
		t.Fatalf("other-side counter changed to %d", followers)
	}
}

func TestFollowFailsWhenSelfSideDenied(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	env.docs.DenyWrites("u1")
	social := newSocial(env)

	result := social.Follow(context.Background(), "u1", "u2")
	if result.Outcome != OutcomeFailed || !errors.Is(result.Err(), repository.ErrPermissionDenied) {
		t.Fatalf("expected failed with permission denied, got %+v", result)
	}
	if followers, _ := env.counts(t, "u2"); followers != 0 {
		t.Fatalf("other side must not be touched after a self-side failure")
	}
}

func TestRepeatedFollowDoesNotDoubleCount(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	social := newSocial(env)
	ctx := context.Background()

	social.Follow(ctx, "u1", "u2")
	if result := social.Follow(ctx, "u1", "u2"); result.Outcome != OutcomeNoop {
		t.Fatalf("second follow should be a noop, got %v", result.Outcome)
	}
	if _, following := env.counts(t, "u1"); following != 1 {
		t.Fatalf("following %d, want 1", following)
	}
}

func TestPartialFollowHealsOnRetry(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	social := newSocial(env)
	ctx := context.Background()

	env.docs.DenyWrites("u2")
	social.Follow(ctx, "u1", "u2")
	env.docs.AllowWrites("u2")

	if result := social.Follow(ctx, "u1", "u2"); result.Outcome != OutcomeFull {
		t.Fatalf("retry should complete the other side, got %v", result.Outcome)
	}
	if followers, _ := env.counts(t, "u2"); followers != 1 {
		t.Fatalf("u2 followers %d, want 1", followers)
	}
	if _, following := env.counts(t, "u1"); following != 1 {
		t.Fatalf("u1 following %d, want 1", following)
	}
}

// flakyUsers fails the next counter updates on one side.
type flakyUsers struct {
	repository.UserRepository
	failFollowing int
	failFollowers int
}

var errCounterUnavailable = errors.New("counter unavailable")

func (u *flakyUsers) IncrementFollowing(ctx context.Context, uid string, delta int64) error {
	if u.failFollowing > 0 {
		u.failFollowing--
		return errCounterUnavailable
	}
	return u.UserRepository.IncrementFollowing(ctx, uid, delta)
}

func (u *flakyUsers) IncrementFollowers(ctx context.Context, uid string, delta int64) error {
	if u.failFollowers > 0 {
		u.failFollowers--
		return errCounterUnavailable
	}
	return u.UserRepository.IncrementFollowers(ctx, uid, delta)
}

func TestFailedFollowingCounterIsRepairedOnRetry(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	users := &flakyUsers{UserRepository: env.docs.Users(), failFollowing: 1}
	social := NewSocialService(users, env.docs.Follows(), env.publisher, env.logger)
	ctx := context.Background()

	first := social.Follow(ctx, "u1", "u2")
	if first.Outcome != OutcomeFailed || !errors.Is(first.SelfErr, errCounterUnavailable) {
		t.Fatalf("first follow: %+v", first)
	}
	if ok, _ := social.IsFollowing(ctx, "u1", "u2"); ok {
		t.Fatalf("edge should be reverted when the counter fails")
	}

	if second := social.Follow(ctx, "u1", "u2"); second.Outcome != OutcomeFull {
		t.Fatalf("second follow: %+v", second)
	}
	if ok, _ := social.IsFollowing(ctx, "u1", "u2"); !ok {
		t.Fatalf("expected isFollowing(u1, u2)")
	}
	if _, following := env.counts(t, "u1"); following != 1 {
		t.Fatalf("u1 following %d, want 1", following)
	}
	if followers, _ := env.counts(t, "u2"); followers != 1 {
		t.Fatalf("u2 followers %d, want 1", followers)
	}
}

func TestFailedFollowersCounterIsRepairedOnRetry(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	users := &flakyUsers{UserRepository: env.docs.Users(), failFollowers: 1}
	social := NewSocialService(users, env.docs.Follows(), env.publisher, env.logger)
	ctx := context.Background()

	if first := social.Follow(ctx, "u1", "u2"); first.Outcome != OutcomePartial {
		t.Fatalf("first follow: %+v", first)
	}
	if followers, _ := env.counts(t, "u2"); followers != 0 {
		t.Fatalf("u2 followers %d, want 0", followers)
	}

	if second := social.Follow(ctx, "u1", "u2"); second.Outcome != OutcomeFull {
		t.Fatalf("second follow: %+v", second)
	}
	if followers, _ := env.counts(t, "u2"); followers != 1 {
		t.Fatalf("u2 followers %d, want 1", followers)
	}
	if _, following := env.counts(t, "u1"); following != 1 {
		t.Fatalf("u1 following %d, want 1", following)
	}
}

func TestFailedUnfollowCounterKeepsEdge(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	users := &flakyUsers{UserRepository: env.docs.Users()}
	social := NewSocialService(users, env.docs.Follows(), env.publisher, env.logger)
	ctx := context.Background()

	social.Follow(ctx, "u1", "u2")
	users.failFollowing = 1
	if result := social.Unfollow(ctx, "u1", "u2"); result.Outcome != OutcomeFailed {
		t.Fatalf("unfollow: %+v", result)
	}
	if ok, _ := social.IsFollowing(ctx, "u1", "u2"); !ok {
		t.Fatalf("edge should be restored when the counter fails")
	}

	if result := social.Unfollow(ctx, "u1", "u2"); result.Outcome != OutcomeFull {
		t.Fatalf("retry unfollow: %+v", result)
	}
	if _, following := env.counts(t, "u1"); following != 0 {
		t.Fatalf("u1 following %d, want 0", following)
	}
}

func TestConcurrentFollowUnfollowKeepsCountersConsistent(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	social := newSocial(env)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); social.Follow(ctx, "u1", "u2") }()
		go func() { defer wg.Done(); social.Unfollow(ctx, "u1", "u2") }()
	}
	wg.Wait()

	following, _ := social.IsFollowing(ctx, "u1", "u2")
	want := int64(0)
	if following {
		want = 1
	}
	if _, got := env.counts(t, "u1"); got != want {
		t.Fatalf("u1 following %d, edge present=%v", got, following)
	}
	if got, _ := env.counts(t, "u2"); got != want {
		t.Fatalf("u2 followers %d, edge present=%v", got, following)
	}
}

func TestFollowListsAndCounts(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "A")
	env.addUser(t, "u2", "B")
	env.addUser(t, "u3", "C")
	social := newSocial(env)
	ctx := context.Background()

	social.Follow(ctx, "u1", "u3")
	social.Follow(ctx, "u2", "u3")

	followers, err := social.ListFollowers(ctx, "u3")
	if err != nil || len(followers) != 2 {
		t.Fatalf("followers: %v %v", followers, err)
	}
	following, _ := social.ListFollowing(ctx, "u1")
	if len(following) != 1 || following[0].CounterpartUID != "u3" {
		t.Fatalf("following: %+v", following)
	}

	counts, err := social.Counts(ctx, "u3")
	if err != nil || counts.Followers != 2 || counts.Following != 0 {
		t.Fatalf("counts: %+v %v", counts, err)
	}
}
