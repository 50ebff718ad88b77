package service

import (
	"context"
	"testing"

	"alightgram/media"
	"alightgram/model"
)

const canonical = "cloudinary"

func TestMergeProfile(t *testing.T) {
	uploaded := "https://res.cloudinary.com/demo/image/upload/me.png"
	avatar := "https://lh3.googleusercontent.com/a/me"
	one := int64(1)

	tests := []struct {
		name      string
		existing  models.UserProfile
		incoming  models.ProfileEdit
		wantPhoto *string
		wantBio   *string
		wantInit  bool
	}{
		{
			name:      "provider avatar does not replace uploaded photo",
			existing:  models.UserProfile{PhotoURL: uploaded, Followers: &one, Following: &one},
			incoming:  models.ProfileEdit{PhotoURL: avatar},
			wantPhoto: nil,
		},
		{
			name:      "empty photo keeps existing",
			existing:  models.UserProfile{PhotoURL: avatar, Followers: &one, Following: &one},
			incoming:  models.ProfileEdit{},
			wantPhoto: nil,
		},
		{
			name:      "uploaded photo replaces provider avatar",
			existing:  models.UserProfile{PhotoURL: avatar, Followers: &one, Following: &one},
			incoming:  models.ProfileEdit{PhotoURL: uploaded},
			wantPhoto: &uploaded,
		},
		{
			name:      "first photo is taken",
			existing:  models.UserProfile{Followers: &one, Following: &one},
			incoming:  models.ProfileEdit{PhotoURL: avatar},
			wantPhoto: &avatar,
		},
		{
			name:     "empty bio keeps existing",
			existing: models.UserProfile{Bio: "motion designer", Followers: &one, Following: &one},
			incoming: models.ProfileEdit{},
			wantBio:  nil,
		},
		{
			name:     "missing counters are initialised",
			existing: models.UserProfile{},
			incoming: models.ProfileEdit{},
			wantInit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := MergeProfile(&tt.existing, tt.incoming, canonical)

			if (update.PhotoURL == nil) != (tt.wantPhoto == nil) ||
				(update.PhotoURL != nil && *update.PhotoURL != *tt.wantPhoto) {
				t.Errorf("photo: got %v, want %v", update.PhotoURL, tt.wantPhoto)
			}
			if (update.Bio == nil) != (tt.wantBio == nil) {
				t.Errorf("bio: got %v, want %v", update.Bio, tt.wantBio)
			}
			initialised := update.Followers != nil && *update.Followers == 0 &&
				update.Following != nil && *update.Following == 0
			if initialised != tt.wantInit {
				t.Errorf("counter init: got %v, want %v", initialised, tt.wantInit)
			}
		})
	}
}

func TestSaveProfileCreatesWithZeroCounters(t *testing.T) {
	env := newTestEnv()
	profiles := NewProfileService(env.docs.Users(), nil, canonical, env.logger)

	profiles.SaveProfile(context.Background(), models.ProfileEdit{UID: "u1", DisplayName: "Ada", Email: "ada@x.io"})

	user, err := env.docs.Users().Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.Followers == nil || user.Following == nil || *user.Followers != 0 || *user.Following != 0 {
		t.Fatalf("expected zero counters, got %v/%v", user.Followers, user.Following)
	}
}

func TestSaveProfileKeepsRichData(t *testing.T) {
	env := newTestEnv()
	profiles := NewProfileService(env.docs.Users(), nil, canonical, env.logger)
	ctx := context.Background()

	uploaded := "https://res.cloudinary.com/demo/image/upload/me.png"
	profiles.SaveProfile(ctx, models.ProfileEdit{UID: "u1", DisplayName: "Ada", PhotoURL: uploaded, Bio: "hello"})
	profiles.SaveProfile(ctx, models.ProfileEdit{UID: "u1", DisplayName: "Ada L", PhotoURL: "https://lh3.googleusercontent.com/a"})

	user, _ := env.docs.Users().Get(ctx, "u1")
	if user.PhotoURL != uploaded {
		t.Fatalf("photo overwritten: %s", user.PhotoURL)
	}
	if user.Bio != "hello" {
		t.Fatalf("bio overwritten: %q", user.Bio)
	}
	if user.DisplayName != "Ada L" {
		t.Fatalf("display name not updated: %q", user.DisplayName)
	}
}

func TestSaveProfileSwallowsStoreErrors(t *testing.T) {
	env := newTestEnv()
	env.docs.DenyWrites("u1")
	profiles := NewProfileService(env.docs.Users(), nil, canonical, env.logger)

	profiles.SaveProfile(context.Background(), models.ProfileEdit{UID: "u1", DisplayName: "Ada"})

	if _, err := env.docs.Users().Get(context.Background(), "u1"); err == nil {
		t.Fatalf("denied write should not have been stored")
	}
}

func TestSearchProfiles(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "Ada Lovelace")
	env.addUser(t, "u2", "Grace Hopper")
	profiles := NewProfileService(env.docs.Users(), nil, canonical, env.logger)

	got, err := profiles.SearchProfiles(context.Background(), "  LOVE ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].UID != "u1" {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

type fakeHost struct{ url string }

func (h fakeHost) Upload(ctx context.Context, file media.File) (string, error) {
	return h.url, nil
}

func TestUpdatePhoto(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "Ada")
	url := "https://res.cloudinary.com/demo/image/upload/new.png"
	profiles := NewProfileService(env.docs.Users(), fakeHost{url: url}, canonical, env.logger)

	user, err := profiles.UpdatePhoto(context.Background(), "u1", media.File{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("update photo: %v", err)
	}
	if user.PhotoURL != url || user.DisplayName != "Ada" {
		t.Fatalf("unexpected profile: %+v", user)
	}
}

func TestEditProfileOnlyByOwner(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "u1", "Ada")
	profiles := NewProfileService(env.docs.Users(), nil, canonical, env.logger)

	if _, err := profiles.EditProfile(context.Background(), "u2", models.ProfileEdit{UID: "u1", Bio: "x"}); err != ErrForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
