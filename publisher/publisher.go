package publisher

import (
	"github.com/sirupsen/logrus"

	"alightgram/events"
	natsClient "alightgram/nats"
)

// Publisher announces domain events. Publishing is fire-and-forget for the
// caller: a failed publish never fails the operation that triggered it.
type Publisher interface {
	PublishUserFollowed(event events.UserFollowedEvent) error
	PublishProjectCreated(event events.ProjectCreatedEvent) error
	PublishProjectLiked(event events.ProjectLikedEvent) error
	PublishCommentAdded(event events.CommentAddedEvent) error
}

type EventPublisher struct {
	nats   *natsClient.Client
	logger *logrus.Entry
}

func NewEventPublisher(nats *natsClient.Client, logger *logrus.Logger) *EventPublisher {
	return &EventPublisher{nats: nats, logger: logger.WithField("component", "publisher")}
}

func (p *EventPublisher) PublishUserFollowed(event events.UserFollowedEvent) error {
	return p.publish(events.SubjectUserFollowed, event, logrus.Fields{
		"follower_id": event.FollowerID,
		"followed_id": event.FollowedID,
	})
}

func (p *EventPublisher) PublishProjectCreated(event events.ProjectCreatedEvent) error {
	return p.publish(events.SubjectProjectCreated, event, logrus.Fields{"project_id": event.ProjectID})
}

func (p *EventPublisher) PublishProjectLiked(event events.ProjectLikedEvent) error {
	return p.publish(events.SubjectProjectLiked, event, logrus.Fields{
		"project_id": event.ProjectID,
		"liked_by":   event.LikedBy,
	})
}

func (p *EventPublisher) PublishCommentAdded(event events.CommentAddedEvent) error {
	return p.publish(events.SubjectCommentAdded, event, logrus.Fields{
		"project_id": event.ProjectID,
		"comment_id": event.CommentID,
	})
}

func (p *EventPublisher) publish(subject string, event interface{}, fields logrus.Fields) error {
	if err := p.nats.Publish(subject, event); err != nil {
		return err
	}

	p.logger.WithFields(fields).WithField("subject", subject).Debug("Published event")
	return nil
}

// Nop drops every event. It stands in when EVENTS_ENABLED is false.
type Nop struct{}

func (Nop) PublishUserFollowed(events.UserFollowedEvent) error     { return nil }
func (Nop) PublishProjectCreated(events.ProjectCreatedEvent) error { return nil }
func (Nop) PublishProjectLiked(events.ProjectLikedEvent) error     { return nil }
func (Nop) PublishCommentAdded(events.CommentAddedEvent) error     { return nil }
