package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"alightgram/events"
	"alightgram/model"
	"alightgram/publisher"
	"alightgram/realtime"
	"alightgram/repository"
)

const commentsRoot = "comments"

func CommentsPath(projectID string) string {
	return realtime.Join(commentsRoot, projectID)
}

// CommentService keeps comments in the realtime store so open project pages
// see them live.
type CommentService struct {
	store      realtime.Store
	users      repository.UserRepository
	visibility *Visibility
	publisher  publisher.Publisher
	logger     *logrus.Entry
	now        func() time.Time
}

func NewCommentService(
	store realtime.Store,
	users repository.UserRepository,
	visibility *Visibility,
	pub publisher.Publisher,
	logger *logrus.Logger,
) *CommentService {
	return &CommentService{
		store:      store,
		users:      users,
		visibility: visibility,
		publisher:  pub,
		logger:     logger.WithField("component", "comments"),
		now:        time.Now,
	}
}

func (s *CommentService) AddComment(ctx context.Context, author *models.Principal, projectID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrInvalidArgument)
	}

	project, err := s.visibility.GetProject(ctx, author.UID, projectID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ProjectID: projectID,
		UserID:    author.UID,
		UserName:  author.DisplayName,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}
	if profile, err := s.users.Get(ctx, author.UID); err == nil {
		comment.UserName = profile.DisplayName
		comment.UserPhoto = profile.PhotoURL
	} else if !isNotFound(err) {
		s.logger.WithError(err).WithField("uid", author.UID).Warn("Commenting without profile details")
	}

	key, err := s.store.Push(ctx, CommentsPath(projectID), comment)
	if err != nil {
		return nil, err
	}
	comment.ID = key

	err = s.publisher.PublishCommentAdded(events.CommentAddedEvent{
		CommentID:    key,
		ProjectID:    projectID,
		ProjectOwner: project.UserID,
		CommentedBy:  author.UID,
		Timestamp:    time.UnixMilli(comment.Timestamp),
	})
	if err != nil {
		s.logger.WithError(err).WithField("comment_id", key).Warn("Failed to publish comment event")
	}

	return &comment, nil
}

// ListComments returns a project's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, viewerUID, projectID string) ([]models.Comment, error) {
	if _, err := s.visibility.GetProject(ctx, viewerUID, projectID); err != nil {
		return nil, err
	}

	children, err := s.store.Children(ctx, CommentsPath(projectID))
	if err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(children))
	for key, raw := range children {
		var c models.Comment
		if err := json.Unmarshal(raw, &c); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Skipping malformed comment")
			continue
		}
		c.ID = key
		c.ProjectID = projectID
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Timestamp == comments[j].Timestamp {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Timestamp < comments[j].Timestamp
	})
	return comments, nil
}
