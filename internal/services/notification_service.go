package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/events"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/pubsub"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/utils"
	"gorm.io/gorm"
)

const unknownActor = "Someone"

// Notifier creates notifications on behalf of the other services.
type Notifier interface {
	CreateNotification(ctx context.Context, typ models.NotificationType, recipientID uint64, payload NotificationPayload) (*models.Notification, error)
}

// NotificationPayload carries the references a template needs. Names are
// resolved from the IDs at creation time.
type NotificationPayload struct {
	ActorID      uint64
	RoomID       *uint64
	FriendshipID *uint64
	Destination  string

	// Title and Message are used verbatim by SYSTEM notifications.
	Title   string
	Message string
}

// NotificationService persists notifications and publishes each new one on
// the recipient's topic.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	rooms         repository.RoomRepository
	bus           pubsub.Bus
	dispatcher    *events.Dispatcher
	logger        *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	rooms repository.RoomRepository,
	bus pubsub.Bus,
	dispatcher *events.Dispatcher,
	logger *slog.Logger,
) *NotificationService {
	if dispatcher == nil {
		dispatcher = events.NewDispatcher()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		rooms:         rooms,
		bus:           bus,
		dispatcher:    dispatcher,
		logger:        logger.With("service", "notifications"),
	}
}

// CreateNotification renders, persists and publishes a notification. The row
// is committed before it is published; publish failures are only logged.
func (s *NotificationService) CreateNotification(ctx context.Context, typ models.NotificationType, recipientID uint64, payload NotificationPayload) (*models.Notification, error) {
	data, err := s.resolve(ctx, payload)
	if err != nil {
		return nil, err
	}

	title, message, err := renderNotification(typ, data)
	if err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:       recipientID,
		Type:         typ,
		Title:        title,
		Message:      message,
		FriendshipID: payload.FriendshipID,
		RoomID:       payload.RoomID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.publish(ctx, notification)
	return notification, nil
}

func (s *NotificationService) publish(ctx context.Context, notification *models.Notification) {
	if s.bus == nil {
		return
	}

	body, err := json.Marshal(notification)
	if err != nil {
		s.logger.Error("failed to encode notification", "notification_id", notification.ID, "error", err)
		return
	}

	topic := pubsub.UserNotificationsTopic(notification.UserID)
	if err := s.bus.Publish(ctx, topic, body); err != nil {
		s.logger.Warn("failed to publish notification", "topic", topic, "notification_id", notification.ID, "error", err)
	}
}

// resolve turns payload IDs into the names shown in messages.
func (s *NotificationService) resolve(ctx context.Context, payload NotificationPayload) (templateData, error) {
	data := templateData{
		ActorName:   unknownActor,
		Destination: payload.Destination,
		Title:       payload.Title,
		Message:     payload.Message,
	}

	if payload.ActorID != 0 {
		user, err := s.users.FindByID(ctx, payload.ActorID)
		switch {
		case err == nil:
			data.ActorName = user.Username
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return data, fmt.Errorf("failed to resolve actor: %w", err)
		}
	}

	if payload.RoomID != nil {
		room, err := s.rooms.FindByID(ctx, *payload.RoomID)
		switch {
		case err == nil:
			data.RoomName = room.Name
		case errors.Is(err, gorm.ErrRecordNotFound):
			data.RoomName = "a room"
		default:
			return data, fmt.Errorf("failed to resolve room: %w", err)
		}
	}

	return data, nil
}

// GetNotifications lists all notifications of userID, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uint64, page utils.PaginationParams) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, false, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// GetUnreadNotifications lists the unread notifications of userID.
func (s *NotificationService) GetUnreadNotifications(ctx context.Context, userID uint64, page utils.PaginationParams) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, true, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread counts the unread notifications of userID.
func (s *NotificationService) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) findOwned(ctx context.Context, userID, notificationID uint64) (*models.Notification, error) {
	notification, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	// Other users' notifications are reported as missing.
	if notification.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// MarkAsRead marks one notification of userID as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uint64) (*models.Notification, error) {
	notification, err := s.findOwned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.Read {
		return notification, nil
	}

	notification.Read = true
	if err := s.notifications.Update(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return notification, nil
}

// MarkAllAsRead marks every notification of userID as read and returns how
// many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint64) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return n, nil
}

// AnswerToNotification records the recipient's answer. Accepting a
// FRIEND_REQUEST accepts the friendship first; if that fails the
// notification stays unanswered.
func (s *NotificationService) AnswerToNotification(ctx context.Context, userID, notificationID uint64, accepted bool) (*models.Notification, error) {
	notification, err := s.findOwned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.RequestAccepted != nil {
		return nil, ErrNotificationAnswered
	}

	if notification.Type == models.NotificationFriendRequest && accepted {
		if notification.FriendshipID == nil {
			return nil, ErrFriendRequestNotFound
		}
		event := events.FriendRequestAnswered{
			NotificationID: notification.ID,
			FriendshipID:   *notification.FriendshipID,
			RecipientID:    userID,
			Accepted:       accepted,
		}
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			return nil, err
		}
	}

	notification.Read = true
	notification.RequestAccepted = &accepted
	if err := s.notifications.Update(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return notification, nil
}
