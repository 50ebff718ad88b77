package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alightgram/model"
	"alightgram/repository"
	"alightgram/tags"
)

func newProjects(env *testEnv) *ProjectService {
	visibility := NewVisibility(env.docs.Projects())
	suggester := tags.NewSuggester(nil, 10, env.logger)
	return NewProjectService(env.docs.Projects(), env.docs.Users(), visibility, suggester, env.publisher, env.logger)
}

func seedProject(t *testing.T, env *testEnv, owner, title string, public bool, createdAt time.Time) string {
	t.Helper()
	p := &models.Project{Title: title, UserID: owner, IsPublic: public, XMLContent: "<xml/>", CreatedAt: createdAt}
	if err := env.docs.Projects().Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p.ID
}

func titles(projects []models.Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Title)
	}
	return out
}

func TestListProjectsForOwnerByViewer(t *testing.T) {
	env := newTestEnv()
	base := time.Now()
	seedProject(t, env, "u1", "public", true, base)
	seedProject(t, env, "u1", "private", false, base.Add(time.Second))
	seedProject(t, env, "u2", "elsewhere", true, base)
	visibility := NewVisibility(env.docs.Projects())
	ctx := context.Background()

	own, err := visibility.ListProjectsForOwner(ctx, "u1", "u1")
	if err != nil {
		t.Fatalf("owner listing: %v", err)
	}
	if got := titles(own); len(got) != 2 || got[0] != "private" || got[1] != "public" {
		t.Fatalf("owner should see both, newest first: %v", got)
	}

	other, _ := visibility.ListProjectsForOwner(ctx, "u1", "u2")
	if got := titles(other); len(got) != 1 || got[0] != "public" {
		t.Fatalf("other viewer should see only public: %v", got)
	}

	anonymous, _ := visibility.ListProjectsForOwner(ctx, "u1", "")
	if len(anonymous) != 1 {
		t.Fatalf("anonymous viewer should see only public: %v", titles(anonymous))
	}
}

func TestFeedExcludesPrivateProjects(t *testing.T) {
	env := newTestEnv()
	base := time.Now()
	seedProject(t, env, "u1", "P", false, base)
	seedProject(t, env, "u1", "old", true, base.Add(-time.Hour))
	seedProject(t, env, "u3", "new", true, base.Add(time.Hour))
	visibility := NewVisibility(env.docs.Projects())

	feed, err := visibility.ListFeed(context.Background())
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	got := titles(feed)
	if len(got) != 2 || got[0] != "new" || got[1] != "old" {
		t.Fatalf("unexpected feed: %v", got)
	}
	for _, p := range feed {
		if !p.IsPublic {
			t.Fatalf("private project %q in feed", p.Title)
		}
	}
}

func TestGetProjectHidesPrivateFromOthers(t *testing.T) {
	env := newTestEnv()
	id := seedProject(t, env, "u1", "P", false, time.Now())
	visibility := NewVisibility(env.docs.Projects())
	ctx := context.Background()

	if _, err := visibility.GetProject(ctx, "u2", id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found for other viewer, got %v", err)
	}
	if _, err := visibility.GetProject(ctx, "u1", id); err != nil {
		t.Fatalf("owner fetch: %v", err)
	}
}

func TestSearchFeed(t *testing.T) {
	env := newTestEnv()
	now := time.Now()
	seedProject(t, env, "u1", "Glow Pack", true, now)
	seedProject(t, env, "u1", "Glow Secret", false, now)
	tagged := &models.Project{Title: "Shake", UserID: "u2", IsPublic: true, Tags: []string{"#glowy"}, CreatedAt: now}
	_ = env.docs.Projects().Create(context.Background(), tagged)

	got, err := NewVisibility(env.docs.Projects()).SearchFeed(context.Background(), "GLOW")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected title and tag matches only, got %v", titles(got))
	}
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "Ada")
	projects := newProjects(env)
	ctx := context.Background()

	if _, err := projects.CreateProject(ctx, "u1", ProjectDraft{Title: " ", XMLContent: "<xml/>"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for blank title, got %v", err)
	}

	p, err := projects.CreateProject(ctx, "u1", ProjectDraft{
		Title:      "Glow",
		XMLContent: "<xml/>",
		IsPublic:   true,
		Tags:       []string{"glow", "#Glow", " #shake "},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" || p.AuthorName != "Ada" || p.Likes != 0 {
		t.Fatalf("unexpected project: %+v", p)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "#glow" || p.Tags[1] != "#shake" {
		t.Fatalf("unexpected tags: %v", p.Tags)
	}
	if len(env.publisher.created) != 1 {
		t.Fatalf("expected project.created event")
	}
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	env := newTestEnv()
	id := seedProject(t, env, "u1", "Glow", true, time.Now())
	projects := newProjects(env)
	ctx := context.Background()

	private := false
	if _, err := projects.UpdateProject(ctx, "u2", id, models.ProjectUpdate{IsPublic: &private}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := projects.UpdateProject(ctx, "u1", id, models.ProjectUpdate{IsPublic: &private})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.IsPublic || updated.UpdatedAt == nil {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := projects.DeleteProject(ctx, "u2", id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("private project should look missing to others, got %v", err)
	}
	if err := projects.DeleteProject(ctx, "u1", id); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestLikeProjectIsSoft(t *testing.T) {
	env := newTestEnv()
	id := seedProject(t, env, "u1", "Glow", true, time.Now())
	hidden := seedProject(t, env, "u1", "Hidden", false, time.Now())
	projects := newProjects(env)
	ctx := context.Background()

	projects.LikeProject(ctx, "u2", id, 1)
	projects.LikeProject(ctx, "u2", "missing", 1)
	projects.LikeProject(ctx, "u2", hidden, 1)

	p, _ := env.docs.Projects().GetByID(ctx, id)
	if p.Likes != 1 {
		t.Fatalf("likes %d, want 1", p.Likes)
	}
	h, _ := env.docs.Projects().GetByID(ctx, hidden)
	if h.Likes != 0 {
		t.Fatalf("hidden project liked by a stranger")
	}
	if len(env.publisher.likes) != 1 || env.publisher.likes[0].OwnerID != "u1" {
		t.Fatalf("unexpected like events: %+v", env.publisher.likes)
	}

	projects.LikeProject(ctx, "u2", id, -1)
	p, _ = env.docs.Projects().GetByID(ctx, id)
	if p.Likes != 0 {
		t.Fatalf("unlike: likes %d, want 0", p.Likes)
	}
}

func TestSuggestTagsWithoutCredentials(t *testing.T) {
	env := newTestEnv()
	got := newProjects(env).SuggestTags(context.Background(), "Glow", "<xml/>")
	if len(got) != 2 || got[0] != "#local" || got[1] != "#project" {
		t.Fatalf("unexpected tags: %v", got)
	}
}
