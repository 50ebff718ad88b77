package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/events"
	"alightgram/model"
	"alightgram/publisher"
	"alightgram/repository"
)

// Outcome classifies a follow or unfollow.
type Outcome int

const (
	// OutcomeNoop means nothing had to change: a self-follow, or an edge
	// already in the requested state on both sides.
	OutcomeNoop Outcome = iota
	// OutcomeFull means both the actor's and the target's records were written.
	OutcomeFull
	// OutcomePartial means the actor's records were written but the target's
	// were not. The operation still counts as a success.
	OutcomePartial
	// OutcomeFailed means the actor's own records could not be written.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeFull:
		return "full"
	case OutcomePartial:
		return "partial"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type FollowResult struct {
	Outcome  Outcome
	SelfErr  error
	OtherErr error
}

// Err is the error the caller must surface. Only a self-side failure counts.
func (r FollowResult) Err() error {
	if r.Outcome == OutcomeFailed {
		return r.SelfErr
	}
	return nil
}

// SocialService is the social graph manager. Each follow edge is written in
// two phases: the actor's following set and counter first, which must
// succeed, then the target's followers set and counter, which may fail.
// Counters move only when an edge mirror actually appeared or disappeared,
// so repeating a call never double counts. A mirror change whose counter
// update fails is undone, so the next call counts it again.
type SocialService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	publisher publisher.Publisher
	locks     *pairLocks
	logger    *logrus.Entry
}

func NewSocialService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	pub publisher.Publisher,
	logger *logrus.Logger,
) *SocialService {
	return &SocialService{
		users:     users,
		follows:   follows,
		publisher: pub,
		locks:     newPairLocks(),
		logger:    logger.WithField("component", "social"),
	}
}

func (s *SocialService) Follow(ctx context.Context, actorUID, targetUID string) FollowResult {
	if actorUID == targetUID {
		return FollowResult{Outcome: OutcomeNoop}
	}
	unlock := s.locks.lock(actorUID, targetUID)
	defer unlock()

	log := s.logger.WithFields(logrus.Fields{"actor": actorUID, "target": targetUID})

	selfChanged, err := s.mirror(ctx, log, s.follows.AddFollowing, s.follows.RemoveFollowing, s.users.IncrementFollowing, actorUID, targetUID, 1)
	if err != nil {
		log.WithError(err).Error("Failed to update my following list")
		return FollowResult{Outcome: OutcomeFailed, SelfErr: err}
	}

	otherChanged, err := s.mirror(ctx, log, s.follows.AddFollower, s.follows.RemoveFollower, s.users.IncrementFollowers, targetUID, actorUID, 1)

	if selfChanged {
		s.publishFollowed(log, actorUID, targetUID)
	}
	return s.result(log, selfChanged, otherChanged, err)
}

func (s *SocialService) Unfollow(ctx context.Context, actorUID, targetUID string) FollowResult {
	if actorUID == targetUID {
		return FollowResult{Outcome: OutcomeNoop}
	}
	unlock := s.locks.lock(actorUID, targetUID)
	defer unlock()

	log := s.logger.WithFields(logrus.Fields{"actor": actorUID, "target": targetUID})

	selfChanged, err := s.mirror(ctx, log, s.follows.RemoveFollowing, s.follows.AddFollowing, s.users.IncrementFollowing, actorUID, targetUID, -1)
	if err != nil {
		log.WithError(err).Error("Failed to update my following list")
		return FollowResult{Outcome: OutcomeFailed, SelfErr: err}
	}

	otherChanged, err := s.mirror(ctx, log, s.follows.RemoveFollower, s.follows.AddFollower, s.users.IncrementFollowers, targetUID, actorUID, -1)

	return s.result(log, selfChanged, otherChanged, err)
}

type edgeWrite func(ctx context.Context, owner, counterpart string) (bool, error)

type counterWrite func(ctx context.Context, uid string, delta int64) error

// mirror applies one side of an edge change together with its counter and
// reports whether the edge changed. If the counter cannot be moved the edge
// change is reverted.
func (s *SocialService) mirror(
	ctx context.Context,
	log *logrus.Entry,
	apply, revert edgeWrite,
	count counterWrite,
	owner, counterpart string,
	delta int64,
) (bool, error) {
	changed, err := apply(ctx, owner, counterpart)
	if err != nil || !changed {
		return false, err
	}

	if err := count(ctx, owner, delta); err != nil {
		if _, revertErr := revert(ctx, owner, counterpart); revertErr != nil {
			log.WithError(revertErr).WithField("owner", owner).Error("Failed to revert edge after counter update failed")
		}
		return false, err
	}
	return true, nil
}

func (s *SocialService) result(log *logrus.Entry, selfChanged, otherChanged bool, otherErr error) FollowResult {
	if otherErr != nil {
		log.WithError(otherErr).Warn("Could not update target user's followers")
		return FollowResult{Outcome: OutcomePartial, OtherErr: otherErr}
	}
	if !selfChanged && !otherChanged {
		return FollowResult{Outcome: OutcomeNoop}
	}
	return FollowResult{Outcome: OutcomeFull}
}

func (s *SocialService) publishFollowed(log *logrus.Entry, actorUID, targetUID string) {
	err := s.publisher.PublishUserFollowed(events.UserFollowedEvent{
		FollowerID: actorUID,
		FollowedID: targetUID,
		Timestamp:  time.Now(),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to publish follow event")
	}
}

// IsFollowing checks the actor's own mirror only.
func (s *SocialService) IsFollowing(ctx context.Context, actorUID, targetUID string) (bool, error) {
	return s.follows.IsFollowing(ctx, actorUID, targetUID)
}

func (s *SocialService) ListFollowers(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	return s.follows.ListFollowers(ctx, uid)
}

func (s *SocialService) ListFollowing(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	return s.follows.ListFollowing(ctx, uid)
}

func (s *SocialService) Counts(ctx context.Context, uid string) (*models.FollowCounts, error) {
	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &models.FollowCounts{
		UID:       uid,
		Followers: user.FollowersCount(),
		Following: user.FollowingCount(),
	}, nil
}
