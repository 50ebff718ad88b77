package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"alightgram/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, update models.ProjectUpdate) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerUID string, publicOnly bool) ([]models.Project, error)
	ListPublic(ctx context.Context) ([]models.Project, error)
	IncrementLikes(ctx context.Context, id string, delta int64) error
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, title, description, tags, created_at, updated_at, user_id, author_name,
	author_photo, is_public, likes, xml_content, video_url, thumbnail_url`

// Create inserts the project and assigns its id when empty.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Tags == nil {
		project.Tags = pq.StringArray{}
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (:id, :title, :description, :tags, :created_at, :updated_at, :user_id, :author_name,
			:author_photo, :is_public, :likes, :xml_content, :video_url, :thumbnail_url)
	`

	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var project models.Project
	err := r.db.GetContext(ctx, &project, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

func (r *projectRepository) Update(ctx context.Context, id string, update models.ProjectUpdate) error {
	query := "UPDATE projects SET updated_at = $1"
	args := []interface{}{time.Now()}
	argCount := 2

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argCount)
		args = append(args, value)
		argCount++
	}

	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.XMLContent != nil {
		set("xml_content", *update.XMLContent)
	}
	if update.IsPublic != nil {
		set("is_public", *update.IsPublic)
	}
	if update.Tags != nil {
		set("tags", pq.StringArray(update.Tags))
	}
	if update.VideoURL != nil {
		set("video_url", *update.VideoURL)
	}
	if update.ThumbnailURL != nil {
		set("thumbnail_url", *update.ThumbnailURL)
	}

	query += fmt.Sprintf(" WHERE id = $%d", argCount)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
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

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
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

// ListByOwner applies only equality filters; ordering is left to the caller.
func (r *projectRepository) ListByOwner(ctx context.Context, ownerUID string, publicOnly bool) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1`
	args := []interface{}{ownerUID}

	if publicOnly {
		query += ` AND is_public = $2`
		args = append(args, true)
	}

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list user projects: %w", err)
	}

	return projects, nil
}

func (r *projectRepository) ListPublic(ctx context.Context) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE is_public = $1`

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, true); err != nil {
		return nil, fmt.Errorf("failed to list public projects: %w", err)
	}

	return projects, nil
}

func (r *projectRepository) IncrementLikes(ctx context.Context, id string, delta int64) error {
	query := `
		UPDATE projects
		SET likes = GREATEST(likes + $1, 0)
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to increment likes: %w", err)
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
