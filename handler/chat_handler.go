package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"alightgram/rpc"
	"alightgram/service"
)

type ChatHandler struct {
	chat   *service.ChatService
	logger *logrus.Entry
}

func NewChatHandler(chat *service.ChatService, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger.WithField("handler", "chat"),
	}
}

func (h *ChatHandler) SendMessage(ctx context.Context, req *rpc.SendMessageRequest) (*rpc.MessageResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	msg, err := h.chat.SendMessage(ctx, principal.UID, req.RecipientUID, req.Text)
	if err != nil {
		return nil, toStatus(h.logger, err, "send message")
	}
	return &rpc.MessageResponse{ChatID: service.ChatID(principal.UID, req.RecipientUID), Message: msg}, nil
}

func (h *ChatHandler) ListMessages(ctx context.Context, req *rpc.ListMessagesRequest) (*rpc.MessagesResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	messages, err := h.chat.ListMessages(ctx, principal.UID, req.ChatID)
	if err != nil {
		return nil, toStatus(h.logger, err, "list messages")
	}
	return &rpc.MessagesResponse{Messages: messages}, nil
}

func (h *ChatHandler) ListChats(ctx context.Context, _ *rpc.Empty) (*rpc.ChatsResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}

	chats, err := h.chat.ListChats(ctx, principal.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "list chats")
	}
	return &rpc.ChatsResponse{Chats: chats}, nil
}
