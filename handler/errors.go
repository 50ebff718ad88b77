package handler

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alightgram/interceptor"
	"alightgram/model"
	"alightgram/repository"
	"alightgram/service"
)

// toStatus maps domain errors to gRPC codes. Anything unrecognised is an
// internal error and is logged before being hidden from the caller.
func toStatus(log *logrus.Entry, err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, repository.ErrPermissionDenied), errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, "permission denied")
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, repository.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	}

	if s, ok := status.FromError(err); ok {
		return s.Err()
	}

	log.WithError(err).Errorf("Failed to %s", action)
	return status.Errorf(codes.Internal, "failed to %s", action)
}

func principalFrom(ctx context.Context) (*models.Principal, error) {
	principal, err := interceptor.GetPrincipalFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return principal, nil
}
