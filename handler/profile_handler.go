package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"alightgram/model"
	"alightgram/rpc"
	"alightgram/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *logrus.Entry
}

func NewProfileHandler(profiles *service.ProfileService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.WithField("handler", "profile"),
	}
}

func (h *ProfileHandler) GetProfile(ctx context.Context, req *rpc.UserRequest) (*rpc.ProfileResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profile, err := h.profiles.GetProfile(ctx, req.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "get profile")
	}
	return &rpc.ProfileResponse{Profile: profile}, nil
}

func (h *ProfileHandler) ListProfiles(ctx context.Context, _ *rpc.Empty) (*rpc.ProfilesResponse, error) {
	profiles, err := h.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, toStatus(h.logger, err, "list profiles")
	}
	return &rpc.ProfilesResponse{Profiles: profiles}, nil
}

func (h *ProfileHandler) SearchProfiles(ctx context.Context, req *rpc.SearchRequest) (*rpc.ProfilesResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profiles, err := h.profiles.SearchProfiles(ctx, req.Query)
	if err != nil {
		return nil, toStatus(h.logger, err, "search profiles")
	}
	return &rpc.ProfilesResponse{Profiles: profiles}, nil
}

// UpdateProfile edits the caller's own profile. Empty fields are left as they are.
func (h *ProfileHandler) UpdateProfile(ctx context.Context, req *rpc.UpdateProfileRequest) (*rpc.ProfileResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profile, err := h.profiles.EditProfile(ctx, principal.UID, models.ProfileEdit{
		UID:         principal.UID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
		Bio:         req.Bio,
	})
	if err != nil {
		return nil, toStatus(h.logger, err, "update profile")
	}
	return &rpc.ProfileResponse{Profile: profile}, nil
}
