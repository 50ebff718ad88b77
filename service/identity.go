package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"

	"alightgram/model"
	"alightgram/pkg/jwt"
	"alightgram/repository"
)

const minPasswordLength = 6

// Session is a signed-in principal with its access token.
type Session struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Profile   *models.UserProfile `json:"profile"`
}

// GoogleTokenValidator checks a Google ID token issued for audience.
type GoogleTokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

type googleValidator struct{}

func (googleValidator) Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, idToken, audience)
}

// IdentityService signs users in with a password or a Google account and
// hands out access tokens. Every successful sign-in saves the profile, which
// is where provider data meets stored data.
type IdentityService struct {
	credentials    repository.CredentialRepository
	users          repository.UserRepository
	profiles       *ProfileService
	tokens         *jwt.Manager
	revocations    repository.TokenRevocations
	google         GoogleTokenValidator
	googleClientID string
	hashCost       int
	logger         *logrus.Entry
}

func NewIdentityService(
	credentials repository.CredentialRepository,
	users repository.UserRepository,
	profiles *ProfileService,
	tokens *jwt.Manager,
	revocations repository.TokenRevocations,
	googleClientID string,
	logger *logrus.Logger,
) *IdentityService {
	return &IdentityService{
		credentials:    credentials,
		users:          users,
		profiles:       profiles,
		tokens:         tokens,
		revocations:    revocations,
		google:         googleValidator{},
		googleClientID: googleClientID,
		hashCost:       bcrypt.DefaultCost,
		logger:         logger.WithField("component", "identity"),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidArgument)
	}
	return email, nil
}

func (s *IdentityService) CreateAccount(ctx context.Context, email, password, displayName string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &models.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
		CreatedAt:    time.Now(),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	s.logger.WithField("uid", cred.UID).Info("Account created")
	return s.signIn(ctx, models.ProfileEdit{UID: cred.UID, DisplayName: displayName, Email: email})
}

func (s *IdentityService) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(ctx, models.ProfileEdit{UID: cred.UID, Email: cred.Email})
}

// SignInWithGoogle accepts the ID token from the Google sign-in popup. The
// first sign-in creates the account.
func (s *IdentityService) SignInWithGoogle(ctx context.Context, idToken string) (*Session, error) {
	if s.googleClientID == "" {
		return nil, fmt.Errorf("%w: google sign-in is not configured", ErrInvalidArgument)
	}

	payload, err := s.google.Validate(ctx, idToken, s.googleClientID)
	if err != nil {
		s.logger.WithError(err).Warn("Rejected google id token")
		return nil, ErrUnauthenticated
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	cred, err := s.credentials.GetByProviderSubject(ctx, models.ProviderGoogle, payload.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		cred = &models.Credential{
			UID:             uuid.NewString(),
			Email:           strings.ToLower(email),
			Provider:        models.ProviderGoogle,
			ProviderSubject: payload.Subject,
			CreatedAt:       time.Now(),
		}
		if err := s.credentials.Create(ctx, cred); err != nil {
			return nil, err
		}
		s.logger.WithField("uid", cred.UID).Info("Account created from google sign-in")
	} else if err != nil {
		return nil, err
	}

	return s.signIn(ctx, models.ProfileEdit{
		UID:         cred.UID,
		DisplayName: name,
		Email:       strings.ToLower(email),
		PhotoURL:    picture,
	})
}

// SignOut revokes token until it would have expired anyway.
func (s *IdentityService) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return ErrUnauthenticated
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *IdentityService) signIn(ctx context.Context, edit models.ProfileEdit) (*Session, error) {
	s.profiles.SaveProfile(ctx, edit)

	profile, err := s.users.Get(ctx, edit.UID)
	if err != nil {
		s.logger.WithError(err).WithField("uid", edit.UID).Warn("Signed in without a stored profile")
		profile = &models.UserProfile{
			UID:         edit.UID,
			DisplayName: edit.DisplayName,
			Email:       edit.Email,
			PhotoURL:    edit.PhotoURL,
		}
	}

	token, claims, err := s.tokens.Generate(profile.UID, profile.Email, profile.DisplayName)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Profile: profile}, nil
}
