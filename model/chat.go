package models

type ChatMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// ChatMetadata lives at chats/{chatId}/metadata.
type ChatMetadata struct {
	ChatID          string          `json:"chatId,omitempty"`
	LastMessage     string          `json:"lastMessage"`
	LastMessageTime int64           `json:"lastMessageTime"`
	Participants    map[string]bool `json:"participants"`
}
