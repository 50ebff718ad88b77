package models

import "time"

// UserProfile is the persisted profile document. Followers and Following are
// pointers because records created before the counters existed carry no value.
type UserProfile struct {
	UID         string    `json:"uid" db:"uid" firestore:"uid"`
	DisplayName string    `json:"display_name" db:"display_name" firestore:"displayName"`
	Email       string    `json:"email" db:"email" firestore:"email"`
	PhotoURL    string    `json:"photo_url,omitempty" db:"photo_url" firestore:"photoURL,omitempty"`
	Bio         string    `json:"bio,omitempty" db:"bio" firestore:"bio,omitempty"`
	Followers   *int64    `json:"followers,omitempty" db:"followers" firestore:"followers,omitempty"`
	Following   *int64    `json:"following,omitempty" db:"following" firestore:"following,omitempty"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" firestore:"updatedAt"`
}

// FollowersCount returns the followers counter, treating a missing value as zero.
func (u *UserProfile) FollowersCount() int64 {
	if u.Followers == nil {
		return 0
	}
	return *u.Followers
}

// FollowingCount returns the following counter, treating a missing value as zero.
func (u *UserProfile) FollowingCount() int64 {
	if u.Following == nil {
		return 0
	}
	return *u.Following
}

// ProfileEdit is an incoming profile write, either from an identity provider
// callback or an explicit edit by the owner.
type ProfileEdit struct {
	UID         string `json:"uid" validate:"required"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// ProfileUpdate lists the fields written by an update. Nil fields are left alone.
type ProfileUpdate struct {
	DisplayName *string
	Email       *string
	PhotoURL    *string
	Bio         *string
	Followers   *int64
	Following   *int64
}

// Empty reports whether the update carries no field at all.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.Email == nil && u.PhotoURL == nil &&
		u.Bio == nil && u.Followers == nil && u.Following == nil
}

// Credential binds a sign-in method to a uid.
type Credential struct {
	UID             string    `json:"uid" db:"uid" firestore:"uid"`
	Email           string    `json:"email" db:"email" firestore:"email"`
	PasswordHash    string    `json:"-" db:"password_hash" firestore:"passwordHash,omitempty"`
	Provider        string    `json:"provider" db:"provider" firestore:"provider"`
	ProviderSubject string    `json:"provider_subject,omitempty" db:"provider_subject" firestore:"providerSubject,omitempty"`
	CreatedAt       time.Time `json:"created_at" db:"created_at" firestore:"createdAt"`
}

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Principal is the signed-in identity handed to callers.
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"-"`
}
