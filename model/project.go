package models

import (
	"time"

	"github.com/lib/pq"
)

type Project struct {
	ID          string         `json:"id" db:"id" firestore:"-"`
	Title       string         `json:"title" db:"title" firestore:"title"`
	Description string         `json:"description,omitempty" db:"description" firestore:"description,omitempty"`
	Tags        pq.StringArray `json:"tags" db:"tags" firestore:"tags"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at" firestore:"createdAt"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty" db:"updated_at" firestore:"updatedAt,omitempty"`

	UserID      string `json:"user_id" db:"user_id" firestore:"userId"`
	AuthorName  string `json:"author_name" db:"author_name" firestore:"authorName"`
	AuthorPhoto string `json:"author_photo,omitempty" db:"author_photo" firestore:"authorPhoto,omitempty"`

	IsPublic bool  `json:"is_public" db:"is_public" firestore:"isPublic"`
	Likes    int64 `json:"likes" db:"likes" firestore:"likes"`

	XMLContent   string `json:"xml_content" db:"xml_content" firestore:"xmlContent"`
	VideoURL     string `json:"video_url,omitempty" db:"video_url" firestore:"videoUrl,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" db:"thumbnail_url" firestore:"thumbnailUrl,omitempty"`
}

// ProjectUpdate lists the owner-editable fields. Nil fields are left alone.
type ProjectUpdate struct {
	Title        *string
	Description  *string
	XMLContent   *string
	IsPublic     *bool
	Tags         []string
	VideoURL     *string
	ThumbnailURL *string
}

// Empty reports whether the update carries no field at all.
func (u ProjectUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.XMLContent == nil &&
		u.IsPublic == nil && u.Tags == nil && u.VideoURL == nil && u.ThumbnailURL == nil
}
