package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"alightgram/rpc"
	"alightgram/service"
)

type AuthHandler struct {
	identity *service.IdentityService
	logger   *logrus.Entry
}

func NewAuthHandler(identity *service.IdentityService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		logger:   logger.WithField("handler", "auth"),
	}
}

func (h *AuthHandler) CreateAccount(ctx context.Context, req *rpc.CreateAccountRequest) (*rpc.SessionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	session, err := h.identity.CreateAccount(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, toStatus(h.logger, err, "create account")
	}
	return sessionResponse(session), nil
}

func (h *AuthHandler) SignInWithPassword(ctx context.Context, req *rpc.SignInRequest) (*rpc.SessionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	session, err := h.identity.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(h.logger, err, "sign in")
	}
	return sessionResponse(session), nil
}

func (h *AuthHandler) SignInWithGoogle(ctx context.Context, req *rpc.GoogleSignInRequest) (*rpc.SessionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	session, err := h.identity.SignInWithGoogle(ctx, req.IDToken)
	if err != nil {
		return nil, toStatus(h.logger, err, "sign in with google")
	}
	return sessionResponse(session), nil
}

func (h *AuthHandler) SignOut(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.identity.SignOut(ctx, principal.Token); err != nil {
		return nil, toStatus(h.logger, err, "sign out")
	}
	h.logger.WithField("uid", principal.UID).Info("Signed out")
	return &rpc.Empty{}, nil
}

func sessionResponse(s *service.Session) *rpc.SessionResponse {
	return &rpc.SessionResponse{
		AccessToken: s.Token,
		ExpiresAt:   s.ExpiresAt,
		Profile:     s.Profile,
	}
}
