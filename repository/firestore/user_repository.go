package firestore

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"alightgram/model"
	"alightgram/repository"
)

type userRepository struct {
	client *firestore.Client
}

func NewUserRepository(client *firestore.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(uid)
}

func (r *userRepository) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	snap, err := r.doc(uid).Get(ctx)
	if err != nil {
		return nil, translate(err, "get user")
	}

	var user models.UserProfile
	if err := snap.DataTo(&user); err != nil {
		return nil, translate(err, "decode user")
	}
	user.UID = uid
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.UserProfile) error {
	_, err := r.doc(user.UID).Create(ctx, user)
	return translate(err, "create user")
}

func (r *userRepository) Update(ctx context.Context, uid string, update models.ProfileUpdate) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: time.Now()}}

	if update.DisplayName != nil {
		updates = append(updates, firestore.Update{Path: "displayName", Value: *update.DisplayName})
	}
	if update.Email != nil {
		updates = append(updates, firestore.Update{Path: "email", Value: *update.Email})
	}
	if update.PhotoURL != nil {
		updates = append(updates, firestore.Update{Path: "photoURL", Value: *update.PhotoURL})
	}
	if update.Bio != nil {
		updates = append(updates, firestore.Update{Path: "bio", Value: *update.Bio})
	}
	if update.Followers != nil {
		updates = append(updates, firestore.Update{Path: "followers", Value: *update.Followers})
	}
	if update.Following != nil {
		updates = append(updates, firestore.Update{Path: "following", Value: *update.Following})
	}

	_, err := r.doc(uid).Update(ctx, updates)
	return translate(err, "update user")
}

func (r *userRepository) List(ctx context.Context) ([]models.UserProfile, error) {
	snaps, err := r.client.Collection(usersCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err, "list users")
	}

	users := make([]models.UserProfile, 0, len(snaps))
	for _, snap := range snaps {
		var user models.UserProfile
		if err := snap.DataTo(&user); err != nil {
			return nil, translate(err, "decode user")
		}
		user.UID = snap.Ref.ID
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].DisplayName) < strings.ToLower(users[j].DisplayName)
	})
	return users, nil
}

func (r *userRepository) IncrementFollowers(ctx context.Context, uid string, delta int64) error {
	return r.increment(ctx, "followers", uid, delta)
}

func (r *userRepository) IncrementFollowing(ctx context.Context, uid string, delta int64) error {
	return r.increment(ctx, "following", uid, delta)
}

// increment reads and writes the counter in one transaction so it can be
// clamped at zero, which a bare firestore.Increment cannot do.
func (r *userRepository) increment(ctx context.Context, field, uid string, delta int64) error {
	ref := r.doc(uid)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var current int64
		if v, err := snap.DataAt(field); err == nil {
			if n, ok := v.(int64); ok {
				current = n
			}
		}
		next := current + delta
		if next < 0 {
			next = 0
		}

		return tx.Update(ref, []firestore.Update{
			{Path: field, Value: next},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	return translate(err, "increment "+field)
}
