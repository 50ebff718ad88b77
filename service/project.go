package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/events"
	"alightgram/model"
	"alightgram/publisher"
	"alightgram/repository"
	"alightgram/tags"
)

// ProjectDraft is what an owner submits when publishing.
type ProjectDraft struct {
	Title        string
	Description  string
	XMLContent   string
	IsPublic     bool
	Tags         []string
	VideoURL     string
	ThumbnailURL string
}

type ProjectService struct {
	projects   repository.ProjectRepository
	users      repository.UserRepository
	visibility *Visibility
	tags       *tags.Suggester
	publisher  publisher.Publisher
	logger     *logrus.Entry
	now        func() time.Time
}

func NewProjectService(
	projects repository.ProjectRepository,
	users repository.UserRepository,
	visibility *Visibility,
	suggester *tags.Suggester,
	pub publisher.Publisher,
	logger *logrus.Logger,
) *ProjectService {
	return &ProjectService{
		projects:   projects,
		users:      users,
		visibility: visibility,
		tags:       suggester,
		publisher:  pub,
		logger:     logger.WithField("component", "projects"),
		now:        time.Now,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, ownerUID string, draft ProjectDraft) (*models.Project, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" || strings.TrimSpace(draft.XMLContent) == "" {
		return nil, fmt.Errorf("%w: title and xml content are required", ErrInvalidArgument)
	}

	owner, err := s.users.Get(ctx, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project owner: %w", err)
	}

	project := &models.Project{
		Title:        draft.Title,
		Description:  draft.Description,
		Tags:         normalizeTags(draft.Tags),
		CreatedAt:    s.now(),
		UserID:       ownerUID,
		AuthorName:   owner.DisplayName,
		AuthorPhoto:  owner.PhotoURL,
		IsPublic:     draft.IsPublic,
		XMLContent:   draft.XMLContent,
		VideoURL:     draft.VideoURL,
		ThumbnailURL: draft.ThumbnailURL,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	err = s.publisher.PublishProjectCreated(events.ProjectCreatedEvent{
		ProjectID: project.ID,
		OwnerID:   ownerUID,
		Title:     project.Title,
		IsPublic:  project.IsPublic,
		Timestamp: project.CreatedAt,
	})
	if err != nil {
		s.logger.WithError(err).WithField("project_id", project.ID).Warn("Failed to publish project event")
	}

	return project, nil
}

// UpdateProject lets the owner change content, metadata and visibility.
func (s *ProjectService) UpdateProject(ctx context.Context, actorUID, id string, update models.ProjectUpdate) (*models.Project, error) {
	if err := s.ownedBy(ctx, actorUID, id); err != nil {
		return nil, err
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidArgument)
	}
	if update.Tags != nil {
		update.Tags = normalizeTags(update.Tags)
	}
	if update.Empty() {
		return s.projects.GetByID(ctx, id)
	}

	if err := s.projects.Update(ctx, id, update); err != nil {
		s.logger.WithError(err).WithField("project_id", id).Error("Error updating project")
		return nil, err
	}
	return s.projects.GetByID(ctx, id)
}

func (s *ProjectService) DeleteProject(ctx context.Context, actorUID, id string) error {
	if err := s.ownedBy(ctx, actorUID, id); err != nil {
		return err
	}
	return s.projects.Delete(ctx, id)
}

// ownedBy reports a project the actor cannot see as missing and one they can
// see but do not own as forbidden.
func (s *ProjectService) ownedBy(ctx context.Context, actorUID, id string) error {
	project, err := s.visibility.GetProject(ctx, actorUID, id)
	if err != nil {
		return err
	}
	if project.UserID != actorUID {
		return ErrForbidden
	}
	return nil
}

func (s *ProjectService) GetProject(ctx context.Context, viewerUID, id string) (*models.Project, error) {
	return s.visibility.GetProject(ctx, viewerUID, id)
}

func (s *ProjectService) ListFeed(ctx context.Context) ([]models.Project, error) {
	return s.visibility.ListFeed(ctx)
}

func (s *ProjectService) ListProjectsForOwner(ctx context.Context, ownerUID, viewerUID string) ([]models.Project, error) {
	return s.visibility.ListProjectsForOwner(ctx, ownerUID, viewerUID)
}

func (s *ProjectService) SearchProjects(ctx context.Context, query string) ([]models.Project, error) {
	return s.visibility.SearchFeed(ctx, query)
}

// LikeProject adds delta to the like counter. It is cosmetic, so every
// failure is logged and dropped.
func (s *ProjectService) LikeProject(ctx context.Context, viewerUID, id string, delta int64) {
	log := s.logger.WithFields(logrus.Fields{"project_id": id, "viewer": viewerUID, "delta": delta})
	if delta == 0 {
		return
	}

	project, err := s.visibility.GetProject(ctx, viewerUID, id)
	if err != nil {
		log.WithError(err).Warn("Like failed")
		return
	}
	if err := s.projects.IncrementLikes(ctx, id, delta); err != nil {
		log.WithError(err).Warn("Like failed")
		return
	}

	if delta > 0 {
		err := s.publisher.PublishProjectLiked(events.ProjectLikedEvent{
			ProjectID: id,
			OwnerID:   project.UserID,
			LikedBy:   viewerUID,
			Timestamp: s.now(),
		})
		if err != nil {
			log.WithError(err).Warn("Failed to publish like event")
		}
	}
}

func (s *ProjectService) SuggestTags(ctx context.Context, title, xml string) []string {
	return s.tags.Suggest(ctx, title, xml)
}

// normalizeTags trims, prefixes '#' and drops duplicates, keeping order.
func normalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
