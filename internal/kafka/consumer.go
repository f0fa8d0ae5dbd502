package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"reunion/internal/config"
)

// MessageHandler processes one consumed message. A nil return commits its offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

const (
	handlerAttempts = 3
	retryBackoff    = 500 * time.Millisecond
)

// offsetClient is the part of *kafka.Consumer that dispatch needs.
type offsetClient interface {
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Seek(partition kafka.TopicPartition, ignoredTimeoutMs int) error
}

// dispatch runs handler for msg, retrying with a growing backoff. The offset is
// committed only after the handler succeeds. When every attempt fails the
// partition is rewound to msg, so the next poll delivers it again instead of
// a later commit skipping past it.
func dispatch(ctx context.Context, client offsetClient, handler MessageHandler, msg *kafka.Message, backoff time.Duration) error {
	var err error
	for attempt := 1; attempt <= handlerAttempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			if _, cerr := client.CommitMessage(msg); cerr != nil {
				return fmt.Errorf("commit offset: %w", cerr)
			}
			return nil
		}
		if attempt == handlerAttempts {
			break
		}
		timer := time.NewTimer(backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			attempt = handlerAttempts
		case <-timer.C:
		}
	}

	if serr := client.Seek(msg.TopicPartition, 0); serr != nil {
		return fmt.Errorf("handle message: %w (rewind failed: %v)", err, serr)
	}
	return fmt.Errorf("handle message: %w", err)
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer creates a consumer. The underlying client is
// created by Consume once the group is known.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: no brokers configured")
	}
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

func consumerConfig(cfg config.KafkaConfig, groupID string) *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false", // 处理成功后手动提交
		"security.protocol":  cfg.Protocol,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}
	return configMap
}

// Consume polls the topics until ctx is canceled or a fatal error occurs.
// Offsets are committed only for messages the handler accepted.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	consumer, err := kafka.NewConsumer(consumerConfig(c.cfg, groupID))
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log := logrus.WithFields(logrus.Fields{"group": groupID, "topics": topics})
	log.Info("Kafka consumer started, waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			log.Info("context canceled, consumer loop finished")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			msgLog := log.WithFields(logrus.Fields{"topic": *e.TopicPartition.Topic, "offset": e.TopicPartition.Offset})
			if err := dispatch(ctx, c.consumer, handler, e, retryBackoff); err != nil {
				msgLog.WithError(err).Error("error processing Kafka message")
			}
		case kafka.Error:
			log.WithFields(logrus.Fields{
				"code":      e.Code(),
				"fatal":     e.IsFatal(),
				"retriable": e.IsRetriable(),
			}).WithError(e).Error("Kafka consumer error")
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.WithField("partitions", e.Partitions).Info("partitions assigned")
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.WithField("partitions", e.Partitions).Info("partitions revoked")
			_ = c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	log := logrus.WithField("group", c.groupID)
	if err := c.consumer.Close(); err != nil {
		log.WithError(err).Error("error closing Kafka consumer")
	} else {
		log.Info("Kafka consumer closed.")
	}
	c.consumer = nil
}
