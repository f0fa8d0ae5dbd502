package events

import (
	"context"
	"time"
)

// Notification is what a user sees about a relationship event.
type Notification struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	FromUserID uint      `json:"from_user_id"`
	RequestID  uint      `json:"request_id,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

var notificationMessages = map[EventType]string{
	FriendRequestCreated:  "sent you a friend request",
	FriendRequestAccepted: "accepted your friend request",
	FriendRequestRejected: "declined your friend request",
	FriendRequestCanceled: "withdrew their friend request",
	FriendshipRemoved:     "removed you from their friends",
}

// NotificationFor returns the recipient and notification for an event.
func NotificationFor(e RelationshipEvent) (uint, Notification) {
	msg, ok := notificationMessages[e.Type]
	if !ok {
		msg = string(e.Type)
	}
	return e.TargetID, Notification{
		EventID:    e.EventID,
		Type:       e.Type,
		FromUserID: e.ActorID,
		RequestID:  e.RequestID,
		Message:    msg,
		CreatedAt:  e.OccurredAt,
	}
}

// NotificationStore keeps the most recent notifications per user.
type NotificationStore interface {
	Push(ctx context.Context, userID uint, n Notification) error
	List(ctx context.Context, userID uint, limit int64) ([]Notification, error)
}

// Notifier pushes a notification to the user's live connections, if any.
// Delivery is best effort; the NotificationStore stays the source of truth.
type Notifier interface {
	Deliver(userID uint, n Notification)
}
