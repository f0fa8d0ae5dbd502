package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reunion/internal/config"
)

func testKafkaConfig() config.KafkaConfig {
	return config.KafkaConfig{
		Brokers:  []string{"broker-1:9092", "broker-2:9092"},
		ClientID: "reunion-test",
		Protocol: "plaintext",
	}
}

func TestProducerConfig(t *testing.T) {
	cm := producerConfig(testKafkaConfig())

	servers, err := cm.Get("bootstrap.servers", "")
	require.NoError(t, err)
	assert.Equal(t, "broker-1:9092,broker-2:9092", servers)

	clientID, err := cm.Get("client.id", "")
	require.NoError(t, err)
	assert.Equal(t, "reunion-test", clientID)
}

func TestConsumerConfig(t *testing.T) {
	cm := consumerConfig(testKafkaConfig(), "notifications")

	group, err := cm.Get("group.id", "")
	require.NoError(t, err)
	assert.Equal(t, "notifications", group)

	autoCommit, err := cm.Get("enable.auto.commit", "")
	require.NoError(t, err)
	assert.Equal(t, "false", autoCommit)
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConfluentKafkaConsumer(config.KafkaConfig{})
	assert.Error(t, err)
}

type fakeOffsetClient struct {
	committed []kafka.Offset
	rewound   []kafka.Offset
	seekErr   error
}

func (f *fakeOffsetClient) CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error) {
	f.committed = append(f.committed, m.TopicPartition.Offset)
	return []kafka.TopicPartition{m.TopicPartition}, nil
}

func (f *fakeOffsetClient) Seek(partition kafka.TopicPartition, _ int) error {
	f.rewound = append(f.rewound, partition.Offset)
	return f.seekErr
}

func testMessage(offset kafka.Offset) *kafka.Message {
	topic := "relationship-events"
	return &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: 0, Offset: offset}}
}

func TestDispatchCommitsHandledMessage(t *testing.T) {
	client := &fakeOffsetClient{}
	err := dispatch(context.Background(), client, func(context.Context, *kafka.Message) error { return nil }, testMessage(7), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []kafka.Offset{7}, client.committed)
	assert.Empty(t, client.rewound)
}

func TestDispatchRetriesTransientFailure(t *testing.T) {
	client := &fakeOffsetClient{}
	calls := 0
	handler := func(context.Context, *kafka.Message) error {
		calls++
		if calls < handlerAttempts {
			return errors.New("redis down")
		}
		return nil
	}

	require.NoError(t, dispatch(context.Background(), client, handler, testMessage(7), time.Millisecond))
	assert.Equal(t, handlerAttempts, calls)
	assert.Equal(t, []kafka.Offset{7}, client.committed)
	assert.Empty(t, client.rewound)
}

func TestDispatchRewindsFailedMessage(t *testing.T) {
	client := &fakeOffsetClient{}
	calls := 0
	failing := func(context.Context, *kafka.Message) error {
		calls++
		return errors.New("redis down")
	}

	err := dispatch(context.Background(), client, failing, testMessage(7), time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, handlerAttempts, calls)
	assert.Empty(t, client.committed)
	assert.Equal(t, []kafka.Offset{7}, client.rewound)

	client.seekErr = errors.New("not assigned")
	err = dispatch(context.Background(), client, failing, testMessage(8), time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rewind failed")
	assert.Empty(t, client.committed)
}

func TestDispatchStopsRetryingOnCancel(t *testing.T) {
	client := &fakeOffsetClient{}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	handler := func(context.Context, *kafka.Message) error {
		calls++
		cancel()
		return errors.New("redis down")
	}

	err := dispatch(ctx, client, handler, testMessage(3), time.Hour)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []kafka.Offset{3}, client.rewound)
}
