package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/model"
	"alightgram/realtime"
	"alightgram/repository"
)

const (
	chatsRoot     = "chats"
	userChatsRoot = "user-chats"
)

// ChatID is the same for both participants: the sorted uids joined by '_'.
func ChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

func MessagesPath(chatID string) string {
	return realtime.Join(chatsRoot, chatID, "messages")
}

func MetadataPath(chatID string) string {
	return realtime.Join(chatsRoot, chatID, "metadata")
}

func UserChatsPath(uid string) string {
	return realtime.Join(userChatsRoot, uid)
}

// ValidChatUID rejects uids that would make a chat id ambiguous or leave
// their realtime path.
func ValidChatUID(uid string) bool {
	return uid != "" && !strings.ContainsAny(uid, "_/")
}

// IsParticipant reports whether uid is one side of chatID.
func IsParticipant(chatID, uid string) bool {
	first, second, ok := strings.Cut(chatID, "_")
	if !ok || !ValidChatUID(first) || !ValidChatUID(second) || first >= second {
		return false
	}
	return uid == first || uid == second
}

type ChatService struct {
	store  realtime.Store
	users  repository.UserRepository
	logger *logrus.Entry
	now    func() time.Time
}

func NewChatService(store realtime.Store, users repository.UserRepository, logger *logrus.Logger) *ChatService {
	return &ChatService{
		store:  store,
		users:  users,
		logger: logger.WithField("component", "chat"),
		now:    time.Now,
	}
}

// SendMessage appends the message, then rewrites the chat metadata and
// indexes the chat for both participants.
func (s *ChatService) SendMessage(ctx context.Context, senderUID, recipientUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrInvalidArgument)
	}
	if recipientUID == senderUID {
		return nil, fmt.Errorf("%w: cannot chat with yourself", ErrInvalidArgument)
	}
	if !ValidChatUID(senderUID) || !ValidChatUID(recipientUID) {
		return nil, fmt.Errorf("%w: invalid participant id", ErrInvalidArgument)
	}
	if _, err := s.users.Get(ctx, recipientUID); err != nil {
		return nil, fmt.Errorf("failed to look up recipient %s: %w", recipientUID, err)
	}

	chatID := ChatID(senderUID, recipientUID)
	msg := models.ChatMessage{
		SenderID:  senderUID,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}

	key, err := s.store.Push(ctx, MessagesPath(chatID), msg)
	if err != nil {
		return nil, err
	}
	msg.ID = key

	meta := models.ChatMetadata{
		LastMessage:     text,
		LastMessageTime: msg.Timestamp,
		Participants:    map[string]bool{senderUID: true, recipientUID: true},
	}
	if err := s.store.Set(ctx, MetadataPath(chatID), meta); err != nil {
		return nil, err
	}

	for _, uid := range []string{senderUID, recipientUID} {
		if err := s.store.Set(ctx, realtime.Join(UserChatsPath(uid), chatID), msg.Timestamp); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{"uid": uid, "chat_id": chatID}).Warn("Failed to index chat")
		}
	}

	return &msg, nil
}

// ListMessages returns the chat's messages, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, actorUID, chatID string) ([]models.ChatMessage, error) {
	if !IsParticipant(chatID, actorUID) {
		return nil, ErrForbidden
	}

	children, err := s.store.Children(ctx, MessagesPath(chatID))
	if err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(children))
	for key, raw := range children {
		var m models.ChatMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Skipping malformed message")
			continue
		}
		m.ID = key
		messages = append(messages, m)
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp == messages[j].Timestamp {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp < messages[j].Timestamp
	})
	return messages, nil
}

// ListChats returns uid's chats, most recent activity first.
func (s *ChatService) ListChats(ctx context.Context, uid string) ([]models.ChatMetadata, error) {
	index, err := s.store.Children(ctx, UserChatsPath(uid))
	if err != nil {
		return nil, err
	}

	chats := make([]models.ChatMetadata, 0, len(index))
	for chatID := range index {
		var meta models.ChatMetadata
		ok, err := s.store.Get(ctx, MetadataPath(chatID), &meta)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		meta.ChatID = chatID
		chats = append(chats, meta)
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageTime > chats[j].LastMessageTime
	})
	return chats, nil
}
