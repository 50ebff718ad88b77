package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"alightgram/model"
	"alightgram/rpc"
	"alightgram/service"
)

type SocialHandler struct {
	social   *service.SocialService
	presence *service.PresenceTracker
	logger   *logrus.Entry
}

func NewSocialHandler(social *service.SocialService, presence *service.PresenceTracker, logger *logrus.Logger) *SocialHandler {
	return &SocialHandler{
		social:   social,
		presence: presence,
		logger:   logger.WithField("handler", "social"),
	}
}

func (h *SocialHandler) Follow(ctx context.Context, req *rpc.FollowRequest) (*rpc.FollowResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result := h.social.Follow(ctx, principal.UID, req.TargetUID)
	if err := result.Err(); err != nil {
		return nil, toStatus(h.logger, err, "follow user")
	}
	return followResponse(result), nil
}

func (h *SocialHandler) Unfollow(ctx context.Context, req *rpc.FollowRequest) (*rpc.FollowResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result := h.social.Unfollow(ctx, principal.UID, req.TargetUID)
	if err := result.Err(); err != nil {
		return nil, toStatus(h.logger, err, "unfollow user")
	}
	return followResponse(result), nil
}

func followResponse(result service.FollowResult) *rpc.FollowResponse {
	resp := &rpc.FollowResponse{Outcome: result.Outcome.String()}
	if result.OtherErr != nil {
		resp.OtherError = result.OtherErr.Error()
	}
	return resp
}

func (h *SocialHandler) IsFollowing(ctx context.Context, req *rpc.FollowRequest) (*rpc.IsFollowingResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	following, err := h.social.IsFollowing(ctx, principal.UID, req.TargetUID)
	if err != nil {
		return nil, toStatus(h.logger, err, "check follow")
	}
	return &rpc.IsFollowingResponse{Following: following}, nil
}

func (h *SocialHandler) ListFollowers(ctx context.Context, req *rpc.UserRequest) (*rpc.EdgesResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	edges, err := h.social.ListFollowers(ctx, req.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "list followers")
	}
	return &rpc.EdgesResponse{Edges: edges}, nil
}

func (h *SocialHandler) ListFollowing(ctx context.Context, req *rpc.UserRequest) (*rpc.EdgesResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	edges, err := h.social.ListFollowing(ctx, req.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "list following")
	}
	return &rpc.EdgesResponse{Edges: edges}, nil
}

func (h *SocialHandler) GetCounts(ctx context.Context, req *rpc.UserRequest) (*models.FollowCounts, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	counts, err := h.social.Counts(ctx, req.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "get follow counts")
	}
	return counts, nil
}

func (h *SocialHandler) GetPresence(ctx context.Context, req *rpc.UserRequest) (*rpc.PresenceResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	record, err := h.presence.Status(ctx, req.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "get presence")
	}
	return &rpc.PresenceResponse{UID: req.UID, State: record.State, LastChanged: record.LastChanged}, nil
}

func (h *SocialHandler) OnlineStatuses(ctx context.Context, _ *rpc.Empty) (*rpc.OnlineStatusesResponse, error) {
	online, err := h.presence.OnlineStatuses(ctx)
	if err != nil {
		return nil, toStatus(h.logger, err, "list online statuses")
	}
	return &rpc.OnlineStatusesResponse{Online: online}, nil
}
