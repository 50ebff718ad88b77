package models

type NotificationType string

const (
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeLike    NotificationType = "like"
)

// Notification is pushed under notifications/{uid}.
type Notification struct {
	ID        string           `json:"id,omitempty"`
	Type      NotificationType `json:"type"`
	ActorID   string           `json:"actorId"`
	RelatedID string           `json:"relatedId,omitempty"`
	Message   string           `json:"message"`
	Timestamp int64            `json:"timestamp"`
}
