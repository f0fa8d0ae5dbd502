// Package events defines relationship events and how they are published.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reunion/internal/kafka"
)

// EventType 标识好友关系事件的类型。
type EventType string

const (
	FriendRequestCreated  EventType = "friend_request.created"
	FriendRequestAccepted EventType = "friend_request.accepted"
	FriendRequestRejected EventType = "friend_request.rejected"
	FriendRequestCanceled EventType = "friend_request.canceled"
	FriendshipRemoved     EventType = "friendship.removed"
)

// RelationshipEvent is emitted after a relationship mutation commits.
// TargetID is the user who should hear about it.
type RelationshipEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	RequestID  uint      `json:"request_id,omitempty"`
	ActorID    uint      `json:"actor_id"`
	TargetID   uint      `json:"target_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRelationshipEvent stamps a new event with an id and the current time.
func NewRelationshipEvent(eventType EventType, requestID, actorID, targetID uint) RelationshipEvent {
	return RelationshipEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		RequestID:  requestID,
		ActorID:    actorID,
		TargetID:   targetID,
		OccurredAt: time.Now().UTC(),
	}
}

// Key is the partition key, so events of one pair stay ordered.
func (e RelationshipEvent) Key() []byte {
	return []byte(fmt.Sprintf("%d-%d", e.ActorID, e.TargetID))
}

// Decode parses an event payload and rejects events without a type or target.
func Decode(payload []byte) (RelationshipEvent, error) {
	var e RelationshipEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return RelationshipEvent{}, fmt.Errorf("decode relationship event: %w", err)
	}
	if e.Type == "" || e.TargetID == 0 {
		return RelationshipEvent{}, fmt.Errorf("decode relationship event: missing type or target")
	}
	return e, nil
}

// Publisher delivers relationship events.
type Publisher interface {
	Publish(ctx context.Context, event RelationshipEvent) error
}

// KafkaPublisher writes events to a Kafka topic as JSON.
type KafkaPublisher struct {
	producer kafka.MessageProducer
	topic    string
}

// NewKafkaPublisher creates a publisher on top of a producer.
func NewKafkaPublisher(producer kafka.MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event RelationshipEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal relationship event: %w", err)
	}
	if err := p.producer.SendMessage(ctx, p.topic, event.Key(), payload); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.topic, err)
	}
	return nil
}

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event RelationshipEvent) error {
	logrus.WithFields(logrus.Fields{
		"type":      event.Type,
		"actor_id":  event.ActorID,
		"target_id": event.TargetID,
	}).Debug("event publishing disabled, dropping relationship event")
	return nil
}
