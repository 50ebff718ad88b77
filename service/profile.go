package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/media"
	"alightgram/model"
	"alightgram/repository"
)

// ProfileService is the profile store adapter. Writes from sign-in callbacks
// and explicit edits both go through SaveProfile, which never lets a thinner
// incoming record clobber richer stored data.
type ProfileService struct {
	users         repository.UserRepository
	media         media.Host
	canonicalHost string
	logger        *logrus.Entry
	now           func() time.Time
}

func NewProfileService(users repository.UserRepository, host media.Host, canonicalHost string, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		users:         users,
		media:         host,
		canonicalHost: canonicalHost,
		logger:        logger.WithField("component", "profiles"),
		now:           time.Now,
	}
}

// MergeProfile computes the fields an incoming write may change on an
// existing profile.
func MergeProfile(existing *models.UserProfile, incoming models.ProfileEdit, canonicalHost string) models.ProfileUpdate {
	var update models.ProfileUpdate

	if incoming.DisplayName != "" {
		update.DisplayName = &incoming.DisplayName
	}
	if incoming.Email != "" {
		update.Email = &incoming.Email
	}

	if !keepPhoto(existing.PhotoURL, incoming.PhotoURL, canonicalHost) {
		update.PhotoURL = &incoming.PhotoURL
	}
	if incoming.Bio != "" {
		update.Bio = &incoming.Bio
	}

	zero := int64(0)
	if existing.Followers == nil {
		update.Followers = &zero
	}
	if existing.Following == nil {
		update.Following = &zero
	}

	return update
}

// keepPhoto protects an uploaded photo from a provider avatar.
func keepPhoto(existing, incoming, canonicalHost string) bool {
	if existing == "" {
		return incoming == ""
	}
	if incoming == "" {
		return true
	}
	return media.IsCanonical(existing, canonicalHost) && !media.IsCanonical(incoming, canonicalHost)
}

// SaveProfile inserts or merges incoming. Store errors are logged and
// swallowed; callers must not assume the write happened.
func (s *ProfileService) SaveProfile(ctx context.Context, incoming models.ProfileEdit) {
	log := s.logger.WithField("uid", incoming.UID)

	existing, err := s.users.Get(ctx, incoming.UID)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.create(ctx, incoming); err != nil {
			log.WithError(err).Error("Error saving user profile")
		}
		return
	}
	if err != nil {
		log.WithError(err).Error("Error saving user profile")
		return
	}

	update := MergeProfile(existing, incoming, s.canonicalHost)
	if update.Empty() {
		return
	}
	if err := s.users.Update(ctx, incoming.UID, update); err != nil {
		log.WithError(err).Error("Error saving user profile")
	}
}

func (s *ProfileService) create(ctx context.Context, incoming models.ProfileEdit) error {
	followers, following := int64(0), int64(0)
	now := s.now()

	return s.users.Create(ctx, &models.UserProfile{
		UID:         incoming.UID,
		DisplayName: incoming.DisplayName,
		Email:       incoming.Email,
		PhotoURL:    incoming.PhotoURL,
		Bio:         incoming.Bio,
		Followers:   &followers,
		Following:   &following,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *ProfileService) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, ErrInvalidArgument
	}
	return s.users.Get(ctx, uid)
}

// EditProfile is an explicit edit by the owner.
func (s *ProfileService) EditProfile(ctx context.Context, actorUID string, edit models.ProfileEdit) (*models.UserProfile, error) {
	if edit.UID != actorUID {
		return nil, ErrForbidden
	}
	s.SaveProfile(ctx, edit)
	return s.users.Get(ctx, actorUID)
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	return s.users.List(ctx)
}

// SearchProfiles matches a case-insensitive substring of the display name.
func (s *ProfileService) SearchProfiles(ctx context.Context, query string) ([]models.UserProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users, nil
	}

	matches := make([]models.UserProfile, 0)
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.DisplayName), query) {
			matches = append(matches, u)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].DisplayName) < strings.ToLower(matches[j].DisplayName)
	})
	return matches, nil
}

// UpdatePhoto uploads a new photo and saves its URL on the profile.
func (s *ProfileService) UpdatePhoto(ctx context.Context, uid string, file media.File) (*models.UserProfile, error) {
	if s.media == nil {
		return nil, fmt.Errorf("%w: media uploads are not configured", ErrInvalidArgument)
	}

	url, err := s.media.Upload(ctx, file)
	if err != nil {
		return nil, err
	}

	s.SaveProfile(ctx, models.ProfileEdit{UID: uid, PhotoURL: url})
	return s.users.Get(ctx, uid)
}
