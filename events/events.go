package events

import "time"

// Event subjects (topics)
const (
	SubjectUserFollowed   = "user.followed"
	SubjectProjectCreated = "project.created"
	SubjectProjectLiked   = "project.liked"
	SubjectCommentAdded   = "comment.added"
)

// UserFollowedEvent is published when a follow edge is created on the actor's side
type UserFollowedEvent struct {
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProjectCreatedEvent is published when an owner publishes a project
type ProjectCreatedEvent struct {
	ProjectID string    `json:"project_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	IsPublic  bool      `json:"is_public"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectLikedEvent is published when a like increment was stored
type ProjectLikedEvent struct {
	ProjectID string    `json:"project_id"`
	OwnerID   string    `json:"owner_id"`
	LikedBy   string    `json:"liked_by"`
	Timestamp time.Time `json:"timestamp"`
}

// CommentAddedEvent is published when a user comments on a project
type CommentAddedEvent struct {
	CommentID    string    `json:"comment_id"`
	ProjectID    string    `json:"project_id"`
	ProjectOwner string    `json:"project_owner"`
	CommentedBy  string    `json:"commented_by"`
	Timestamp    time.Time `json:"timestamp"`
}
