package services

import (
	"fmt"
	"strings"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
)

// templateData is what a template can draw on once names are resolved.
type templateData struct {
	ActorName   string
	RoomName    string
	Destination string
	Title       string
	Message     string
}

// renderNotification returns the title and message for typ. Every
// NotificationType must have a case here.
func renderNotification(typ models.NotificationType, data templateData) (string, string, error) {
	switch typ {
	case models.NotificationFriendRequest:
		return "New friend request",
			fmt.Sprintf("%s sent you a friend request", data.ActorName), nil
	case models.NotificationFriendAccepted:
		return "Friend request accepted",
			fmt.Sprintf("%s accepted your friend request", data.ActorName), nil
	case models.NotificationRoomMemberJoined:
		return "New room member",
			fmt.Sprintf("%s joined %s", data.ActorName, data.RoomName), nil
	case models.NotificationRoomKicked:
		return "Removed from room",
			fmt.Sprintf("You were removed from %s by %s", data.RoomName, data.ActorName), nil
	case models.NotificationProposalSelected:
		return "Destination selected",
			fmt.Sprintf("%s was selected for %s", data.Destination, data.RoomName), nil
	case models.NotificationSystem:
		if strings.TrimSpace(data.Title) == "" || strings.TrimSpace(data.Message) == "" {
			return "", "", ErrEmptySystemMessage
		}
		return data.Title, data.Message, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownNotificationType, typ)
	}
}
