package service

import (
	"context"

	"alightgram/model"
	"alightgram/repository"
)

// Visibility decides which projects a viewer may see: the owner sees all of
// theirs, everyone else sees public ones only.
type Visibility struct {
	projects repository.ProjectRepository
}

func NewVisibility(projects repository.ProjectRepository) *Visibility {
	return &Visibility{projects: projects}
}

// CanView reports whether viewerUID may read project.
func CanView(project *models.Project, viewerUID string) bool {
	return project.IsPublic || (viewerUID != "" && project.UserID == viewerUID)
}

// ListProjectsForOwner returns ownerUID's projects as viewerUID may see them,
// newest first.
func (v *Visibility) ListProjectsForOwner(ctx context.Context, ownerUID, viewerUID string) ([]models.Project, error) {
	projects, err := v.projects.ListByOwner(ctx, ownerUID, viewerUID != ownerUID)
	if err != nil {
		return nil, err
	}
	return sortNewestFirst(keepVisible(projects, viewerUID)), nil
}

// ListFeed returns every public project, newest first.
func (v *Visibility) ListFeed(ctx context.Context) ([]models.Project, error) {
	projects, err := v.projects.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return sortNewestFirst(keepVisible(projects, "")), nil
}

// GetProject applies the same rule to a direct fetch. A project the viewer
// may not see is reported as missing.
func (v *Visibility) GetProject(ctx context.Context, viewerUID, id string) (*models.Project, error) {
	project, err := v.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(project, viewerUID) {
		return nil, repository.ErrNotFound
	}
	return project, nil
}

// keepVisible drops anything the store returned that viewerUID may not see.
func keepVisible(projects []models.Project, viewerUID string) []models.Project {
	visible := projects[:0]
	for _, p := range projects {
		if CanView(&p, viewerUID) {
			visible = append(visible, p)
		}
	}
	return visible
}
