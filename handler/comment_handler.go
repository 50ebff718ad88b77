package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"alightgram/rpc"
	"alightgram/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *logrus.Entry
}

func NewCommentHandler(comments *service.CommentService, logger *logrus.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		logger:   logger.WithField("handler", "comment"),
	}
}

func (h *CommentHandler) AddComment(ctx context.Context, req *rpc.AddCommentRequest) (*rpc.CommentResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	comment, err := h.comments.AddComment(ctx, principal, req.ProjectID, req.Text)
	if err != nil {
		return nil, toStatus(h.logger, err, "add comment")
	}
	return &rpc.CommentResponse{Comment: comment}, nil
}

func (h *CommentHandler) ListComments(ctx context.Context, req *rpc.ListCommentsRequest) (*rpc.CommentsResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	comments, err := h.comments.ListComments(ctx, principal.UID, req.ProjectID)
	if err != nil {
		return nil, toStatus(h.logger, err, "list comments")
	}
	return &rpc.CommentsResponse{Comments: comments}, nil
}
