package kafkahandlers

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"reunion/internal/events"
)

// RelationshipEventHandler turns relationship events into notifications
// for the user each event targets, then pushes them to live connections.
type RelationshipEventHandler struct {
	store     events.NotificationStore
	notifiers []events.Notifier
}

// NewRelationshipEventHandler creates a new instance of RelationshipEventHandler.
func NewRelationshipEventHandler(store events.NotificationStore, notifiers ...events.Notifier) *RelationshipEventHandler {
	if store == nil {
		logrus.Panic("NotificationStore cannot be nil")
	}
	return &RelationshipEventHandler{store: store, notifiers: notifiers}
}

// Handle is the MessageHandler passed to the Kafka consumer.
// Undecodable messages are skipped so their offsets get committed.
func (h *RelationshipEventHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	log := logrus.WithFields(logrus.Fields{
		"function": "Handle",
		"key":      string(msg.Key),
	})
	if msg.TopicPartition.Topic != nil {
		log = log.WithFields(logrus.Fields{"topic": *msg.TopicPartition.Topic, "offset": msg.TopicPartition.Offset})
	}

	event, err := events.Decode(msg.Value)
	if err != nil {
		log.WithError(err).Warn("skipping malformed relationship event")
		return nil
	}

	recipient, notification := events.NotificationFor(event)
	if err := h.store.Push(ctx, recipient, notification); err != nil {
		// 返回错误以便不提交 offset，稍后重试
		return fmt.Errorf("store notification for user %d: %w", recipient, err)
	}
	for _, n := range h.notifiers {
		n.Deliver(recipient, notification)
	}

	log.WithFields(logrus.Fields{
		"type":      event.Type,
		"recipient": recipient,
	}).Debug("relationship event stored as notification")
	return nil
}
