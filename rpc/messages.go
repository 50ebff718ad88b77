package rpc

import (
	"time"

	"alightgram/model"
)

type Empty struct{}

// Auth

type CreateAccountRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"omitempty,max=80"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type SessionResponse struct {
	AccessToken string              `json:"access_token"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Profile     *models.UserProfile `json:"profile"`
}

// Profiles

type UserRequest struct {
	UID string `json:"uid" validate:"required"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"max=100"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=80"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
	Bio         string `json:"bio" validate:"omitempty,max=500"`
}

type ProfileResponse struct {
	Profile *models.UserProfile `json:"profile"`
}

type ProfilesResponse struct {
	Profiles []models.UserProfile `json:"profiles"`
}

// Social graph and presence

type FollowRequest struct {
	TargetUID string `json:"target_uid" validate:"required"`
}

type FollowResponse struct {
	Outcome    string `json:"outcome"`
	OtherError string `json:"other_error,omitempty"`
}

type IsFollowingResponse struct {
	Following bool `json:"following"`
}

type EdgesResponse struct {
	Edges []models.FollowEdge `json:"edges"`
}

type PresenceResponse struct {
	UID         string               `json:"uid"`
	State       models.PresenceState `json:"state"`
	LastChanged int64                `json:"last_changed"`
}

type OnlineStatusesResponse struct {
	Online map[string]bool `json:"online"`
}

// Projects

type CreateProjectRequest struct {
	Title        string   `json:"title" validate:"required,max=120"`
	Description  string   `json:"description" validate:"max=2000"`
	XMLContent   string   `json:"xml_content" validate:"required"`
	IsPublic     bool     `json:"is_public"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=40"`
	VideoURL     string   `json:"video_url" validate:"omitempty,url"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"omitempty,url"`
}

type ProjectRequest struct {
	ID string `json:"id" validate:"required"`
}

type UpdateProjectRequest struct {
	ID           string   `json:"id" validate:"required"`
	Title        *string  `json:"title,omitempty" validate:"omitempty,max=120"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	XMLContent   *string  `json:"xml_content,omitempty"`
	IsPublic     *bool    `json:"is_public,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=40"`
	VideoURL     *string  `json:"video_url,omitempty" validate:"omitempty,url"`
	ThumbnailURL *string  `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
}

type LikeProjectRequest struct {
	ID    string `json:"id" validate:"required"`
	Delta int64  `json:"delta" validate:"oneof=1 -1"`
}

type SuggestTagsRequest struct {
	Title      string `json:"title" validate:"required"`
	XMLContent string `json:"xml_content" validate:"required"`
}

type ProjectResponse struct {
	Project *models.Project `json:"project"`
}

type ProjectsResponse struct {
	Projects []models.Project `json:"projects"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

// Comments

type AddCommentRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Text      string `json:"text" validate:"required,max=2000"`
}

type ListCommentsRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
}

type CommentResponse struct {
	Comment *models.Comment `json:"comment"`
}

type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

// Chat

type SendMessageRequest struct {
	RecipientUID string `json:"recipient_uid" validate:"required"`
	Text         string `json:"text" validate:"required,max=2000"`
}

type ListMessagesRequest struct {
	ChatID string `json:"chat_id" validate:"required"`
}

type MessageResponse struct {
	ChatID  string              `json:"chat_id"`
	Message *models.ChatMessage `json:"message"`
}

type MessagesResponse struct {
	Messages []models.ChatMessage `json:"messages"`
}

type ChatsResponse struct {
	Chats []models.ChatMetadata `json:"chats"`
}
