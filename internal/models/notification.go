package models

import "time"

type NotificationType string

const (
	NotificationFriendRequest    NotificationType = "FRIEND_REQUEST"
	NotificationFriendAccepted   NotificationType = "FRIEND_ACCEPTED"
	NotificationRoomMemberJoined NotificationType = "ROOM_MEMBER_JOINED"
	NotificationRoomKicked       NotificationType = "ROOM_KICKED"
	NotificationProposalSelected NotificationType = "PROPOSAL_SELECTED"
	NotificationSystem           NotificationType = "SYSTEM"
)

// AllNotificationTypes lists every notification type. Keep in sync with the
// constants above; the template tests iterate it.
var AllNotificationTypes = []NotificationType{
	NotificationFriendRequest,
	NotificationFriendAccepted,
	NotificationRoomMemberJoined,
	NotificationRoomKicked,
	NotificationProposalSelected,
	NotificationSystem,
}

type Notification struct {
	ID              uint64           `gorm:"primarykey" json:"id"`
	UserID          uint64           `gorm:"not null;index" json:"user_id"`
	Type            NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title           string           `gorm:"type:varchar(255);not null" json:"title"`
	Message         string           `gorm:"type:text;not null" json:"message"`
	FriendshipID    *uint64          `json:"friendship_id,omitempty"`
	RoomID          *uint64          `json:"room_id,omitempty"`
	Read            bool             `gorm:"column:is_read;not null;default:false;index" json:"read"`
	RequestAccepted *bool            `json:"request_accepted"`
	CreatedAt       time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
