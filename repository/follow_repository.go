package repository

import (
	"context"
	"fmt"
	"time"

	"alightgram/model"
	"github.com/jmoiron/sqlx"
)

// FollowRepository stores both mirrors of a follow edge. The following set of a
// user belongs to that user; the followers set belongs to the followed user.
// Each mirror is written independently.
type FollowRepository interface {
	AddFollowing(ctx context.Context, uid, targetUID string) (bool, error)
	RemoveFollowing(ctx context.Context, uid, targetUID string) (bool, error)
	AddFollower(ctx context.Context, uid, followerUID string) (bool, error)
	RemoveFollower(ctx context.Context, uid, followerUID string) (bool, error)
	IsFollowing(ctx context.Context, uid, targetUID string) (bool, error)
	ListFollowing(ctx context.Context, uid string) ([]models.FollowEdge, error)
	ListFollowers(ctx context.Context, uid string) ([]models.FollowEdge, error)
}

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// AddFollowing records uid -> targetUID in uid's following set. It reports
// false when the edge was already there.
func (r *followRepository) AddFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	query := `
		INSERT INTO user_following (user_id, target_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, target_id) DO NOTHING
	`
	return r.exec(ctx, "follow user", query, uid, targetUID, time.Now())
}

func (r *followRepository) RemoveFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	query := `
		DELETE FROM user_following
		WHERE user_id = $1 AND target_id = $2
	`
	return r.exec(ctx, "unfollow user", query, uid, targetUID)
}

// AddFollower records followerUID in uid's followers set.
func (r *followRepository) AddFollower(ctx context.Context, uid, followerUID string) (bool, error) {
	query := `
		INSERT INTO user_followers (user_id, follower_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, follower_id) DO NOTHING
	`
	return r.exec(ctx, "add follower", query, uid, followerUID, time.Now())
}

func (r *followRepository) RemoveFollower(ctx context.Context, uid, followerUID string) (bool, error) {
	query := `
		DELETE FROM user_followers
		WHERE user_id = $1 AND follower_id = $2
	`
	return r.exec(ctx, "remove follower", query, uid, followerUID)
}

// IsFollowing checks uid's own following set only.
func (r *followRepository) IsFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_following
			WHERE user_id = $1 AND target_id = $2
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, uid, targetUID)
	if err != nil {
		return false, fmt.Errorf("failed to check following status: %w", err)
	}

	return exists, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	query := `
		SELECT user_id AS owner_uid, target_id AS counterpart_uid, created_at
		FROM user_following
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var edges []models.FollowEdge
	if err := r.db.SelectContext(ctx, &edges, query, uid); err != nil {
		return nil, fmt.Errorf("failed to query following: %w", err)
	}

	return edges, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	query := `
		SELECT user_id AS owner_uid, follower_id AS counterpart_uid, created_at
		FROM user_followers
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var edges []models.FollowEdge
	if err := r.db.SelectContext(ctx, &edges, query, uid); err != nil {
		return nil, fmt.Errorf("failed to query followers: %w", err)
	}

	return edges, nil
}

func (r *followRepository) exec(ctx context.Context, action, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
