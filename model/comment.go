package models

type Comment struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
