package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// producerStub records SendMessage calls. The mocks package cannot be used
// here because it imports events.
type producerStub struct {
	mock.Mock
}

func (p *producerStub) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	return p.Called(topic, string(key), payload).Error(0)
}

func (p *producerStub) Close() {}

func TestKafkaPublisherPublish(t *testing.T) {
	producer := &producerStub{}
	pub := NewKafkaPublisher(producer, "relationship-events")
	event := NewRelationshipEvent(FriendRequestCreated, 11, 1, 2)

	producer.On("SendMessage", "relationship-events", "1-2", mock.MatchedBy(func(payload []byte) bool {
		decoded, err := Decode(payload)
		return err == nil && decoded.EventID == event.EventID && decoded.RequestID == 11
	})).Return(nil).Once()

	require.NoError(t, pub.Publish(context.Background(), event))
	producer.AssertExpectations(t)
}

func TestKafkaPublisherError(t *testing.T) {
	producer := &producerStub{}
	producer.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := NewKafkaPublisher(producer, "t").Publish(context.Background(), NewRelationshipEvent(FriendshipRemoved, 0, 1, 2))
	assert.ErrorContains(t, err, "broker down")
}

func TestDecode(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"friend_request.created"}`))
	assert.Error(t, err, "target is required")

	payload, _ := json.Marshal(NewRelationshipEvent(FriendRequestAccepted, 3, 2, 1))
	e, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, FriendRequestAccepted, e.Type)
	assert.NotEmpty(t, e.EventID)
}

func TestNotificationFor(t *testing.T) {
	e := NewRelationshipEvent(FriendRequestAccepted, 3, 2, 1)
	recipient, n := NotificationFor(e)

	assert.Equal(t, uint(1), recipient)
	assert.Equal(t, uint(2), n.FromUserID)
	assert.Equal(t, "accepted your friend request", n.Message)
	assert.Equal(t, e.OccurredAt, n.CreatedAt)

	_, n = NotificationFor(RelationshipEvent{Type: "custom", TargetID: 4})
	assert.Equal(t, "custom", n.Message)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), NewRelationshipEvent(FriendshipRemoved, 0, 1, 2)))
}
