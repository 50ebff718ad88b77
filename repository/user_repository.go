package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"alightgram/model"
	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	Get(ctx context.Context, uid string) (*models.UserProfile, error)
	Create(ctx context.Context, user *models.UserProfile) error
	Update(ctx context.Context, uid string, update models.ProfileUpdate) error
	List(ctx context.Context) ([]models.UserProfile, error)
	IncrementFollowers(ctx context.Context, uid string, delta int64) error
	IncrementFollowing(ctx context.Context, uid string, delta int64) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `uid, display_name, email, photo_url, bio, followers, following, created_at, updated_at`

func (r *userRepository) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`

	var user models.UserProfile
	err := r.db.GetContext(ctx, &user, query, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.UserProfile) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:uid, :display_name, :email, :photo_url, :bio, :followers, :following, :created_at, :updated_at)
		ON CONFLICT (uid) DO NOTHING
	`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrAlreadyExists
	}

	return nil
}

// Update writes only the fields set in update.
func (r *userRepository) Update(ctx context.Context, uid string, update models.ProfileUpdate) error {
	query := "UPDATE users SET updated_at = $1"
	args := []interface{}{time.Now()}
	argCount := 2

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argCount)
		args = append(args, value)
		argCount++
	}

	if update.DisplayName != nil {
		set("display_name", *update.DisplayName)
	}
	if update.Email != nil {
		set("email", *update.Email)
	}
	if update.PhotoURL != nil {
		set("photo_url", *update.PhotoURL)
	}
	if update.Bio != nil {
		set("bio", *update.Bio)
	}
	if update.Followers != nil {
		set("followers", *update.Followers)
	}
	if update.Following != nil {
		set("following", *update.Following)
	}

	query += fmt.Sprintf(" WHERE uid = $%d", argCount)
	args = append(args, uid)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY display_name`

	var users []models.UserProfile
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepository) IncrementFollowers(ctx context.Context, uid string, delta int64) error {
	return r.increment(ctx, "followers", uid, delta)
}

func (r *userRepository) IncrementFollowing(ctx context.Context, uid string, delta int64) error {
	return r.increment(ctx, "following", uid, delta)
}

// increment is a single-statement atomic counter update, clamped at zero.
func (r *userRepository) increment(ctx context.Context, column, uid string, delta int64) error {
	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = GREATEST(COALESCE(%[1]s, 0) + $1, 0), updated_at = NOW()
		WHERE uid = $2
	`, column)

	result, err := r.db.ExecContext(ctx, query, delta, uid)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
