// Package firestore implements the repository ports on Cloud Firestore, using
// the document layout of the hosted deployment: users/{uid} with following
// and followers subcollections, and a top-level projects collection.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alightgram/repository"
)

const (
	usersCollection          = "users"
	followingCollection      = "following"
	followersCollection      = "followers"
	projectsCollection       = "projects"
	credentialsCollection    = "credentials"
	credentialKeysCollection = "credential_keys"
)

// NewClient opens a Firestore client for projectID using application
// default credentials.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// translate maps Firestore status codes onto the repository errors.
func translate(err error, action string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return repository.ErrNotFound
	case codes.AlreadyExists:
		return repository.ErrAlreadyExists
	case codes.PermissionDenied:
		return repository.ErrPermissionDenied
	}
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrPermissionDenied) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
