package subscriber

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"alightgram/events"
	"alightgram/model"
	natsClient "alightgram/nats"
	"alightgram/realtime"
)

const (
	notificationStream = "NOTIFICATIONS"
	notificationQueue  = "notification-workers"
)

func NotificationsPath(uid string) string {
	return realtime.Join("notifications", uid)
}

// NotificationSubscriber turns domain events into entries under
// notifications/{uid} in the realtime store.
type NotificationSubscriber struct {
	natsClient *natsClient.Client
	store      realtime.Store
	logger     *logrus.Entry
	ctx        context.Context
	subs       []*nats.Subscription
}

func NewNotificationSubscriber(
	ctx context.Context,
	natsClient *natsClient.Client,
	store realtime.Store,
	logger *logrus.Logger,
) *NotificationSubscriber {
	return &NotificationSubscriber{
		natsClient: natsClient,
		store:      store,
		logger:     logger.WithField("component", "notifications"),
		ctx:        ctx,
	}
}

func (s *NotificationSubscriber) Start() error {
	subjects := []string{
		events.SubjectUserFollowed,
		events.SubjectCommentAdded,
		events.SubjectProjectLiked,
	}

	if err := s.natsClient.CreateStream(notificationStream, subjects); err != nil {
		return err
	}

	handlers := []struct {
		subject string
		durable string
		handle  func(*nats.Msg) error
	}{
		{events.SubjectUserFollowed, "notifications-follows", s.decodeFollowed},
		{events.SubjectCommentAdded, "notifications-comments", s.decodeCommentAdded},
		{events.SubjectProjectLiked, "notifications-likes", s.decodeProjectLiked},
	}

	for _, h := range handlers {
		sub, err := s.natsClient.SubscribeDurable(h.subject, h.durable, notificationQueue, s.ack(h.subject, h.handle))
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}

	s.logger.Info("Notification subscriber started")
	return nil
}

func (s *NotificationSubscriber) Stop() {
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil {
			s.logger.WithError(err).Warn("Failed to drain subscription")
		}
	}
}

// ack acknowledges handled messages and naks failed ones for redelivery.
func (s *NotificationSubscriber) ack(subject string, handle func(*nats.Msg) error) nats.MsgHandler {
	return func(msg *nats.Msg) {
		if err := handle(msg); err != nil {
			s.logger.WithError(err).WithField("subject", subject).Error("Failed to handle event")
			msg.Nak()
			return
		}
		msg.Ack()
	}
}

func (s *NotificationSubscriber) decodeFollowed(msg *nats.Msg) error {
	var event events.UserFollowedEvent
	if err := natsClient.DecodeEvent(msg, &event); err != nil {
		return fmt.Errorf("failed to decode follow event: %w", err)
	}
	return s.HandleUserFollowed(s.ctx, event)
}

func (s *NotificationSubscriber) decodeCommentAdded(msg *nats.Msg) error {
	var event events.CommentAddedEvent
	if err := natsClient.DecodeEvent(msg, &event); err != nil {
		return fmt.Errorf("failed to decode comment event: %w", err)
	}
	return s.HandleCommentAdded(s.ctx, event)
}

func (s *NotificationSubscriber) decodeProjectLiked(msg *nats.Msg) error {
	var event events.ProjectLikedEvent
	if err := natsClient.DecodeEvent(msg, &event); err != nil {
		return fmt.Errorf("failed to decode like event: %w", err)
	}
	return s.HandleProjectLiked(s.ctx, event)
}

func (s *NotificationSubscriber) HandleUserFollowed(ctx context.Context, event events.UserFollowedEvent) error {
	return s.notify(ctx, event.FollowedID, models.Notification{
		Type:      models.NotificationTypeFollow,
		ActorID:   event.FollowerID,
		RelatedID: event.FollowerID,
		Message:   "started following you",
		Timestamp: event.Timestamp.UnixMilli(),
	})
}

func (s *NotificationSubscriber) HandleCommentAdded(ctx context.Context, event events.CommentAddedEvent) error {
	return s.notify(ctx, event.ProjectOwner, models.Notification{
		Type:      models.NotificationTypeComment,
		ActorID:   event.CommentedBy,
		RelatedID: event.ProjectID,
		Message:   "commented on your project",
		Timestamp: event.Timestamp.UnixMilli(),
	})
}

func (s *NotificationSubscriber) HandleProjectLiked(ctx context.Context, event events.ProjectLikedEvent) error {
	return s.notify(ctx, event.OwnerID, models.Notification{
		Type:      models.NotificationTypeLike,
		ActorID:   event.LikedBy,
		RelatedID: event.ProjectID,
		Message:   "liked your project",
		Timestamp: event.Timestamp.UnixMilli(),
	})
}

// notify skips events where the recipient is also the actor.
func (s *NotificationSubscriber) notify(ctx context.Context, recipient string, n models.Notification) error {
	if recipient == "" || recipient == n.ActorID {
		return nil
	}

	key, err := s.store.Push(ctx, NotificationsPath(recipient), n)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"recipient": recipient,
		"type":      n.Type,
		"key":       key,
	}).Info("Created notification")
	return nil
}
