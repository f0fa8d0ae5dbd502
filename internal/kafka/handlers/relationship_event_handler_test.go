package kafkahandlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reunion/internal/events"
	"reunion/internal/mocks"
)

func message(t *testing.T, value []byte) *kafka.Message {
	t.Helper()
	topic := "relationship-events"
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: 0, Offset: 42},
		Key:            []byte("1-2"),
		Value:          value,
	}
}

func TestHandleStoresNotificationForTarget(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	h := NewRelationshipEventHandler(store)

	event := events.NewRelationshipEvent(events.FriendRequestCreated, 5, 1, 2)
	payload, _ := json.Marshal(event)

	store.On("Push", mock.Anything, uint(2), mock.MatchedBy(func(n events.Notification) bool {
		return n.EventID == event.EventID && n.FromUserID == 1 && n.RequestID == 5
	})).Return(nil).Once()

	assert.NoError(t, h.Handle(context.Background(), message(t, payload)))
	store.AssertExpectations(t)
}

func TestHandleSkipsMalformedMessages(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	h := NewRelationshipEventHandler(store)

	assert.NoError(t, h.Handle(context.Background(), message(t, []byte("{broken"))))
	store.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleReturnsStoreErrors(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	h := NewRelationshipEventHandler(store)
	store.On("Push", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	payload, _ := json.Marshal(events.NewRelationshipEvent(events.FriendshipRemoved, 0, 1, 2))
	assert.Error(t, h.Handle(context.Background(), message(t, payload)))
}

func TestNewHandlerPanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() { NewRelationshipEventHandler(nil) })
}

func TestHandleDeliversToLiveNotifiers(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	live := &mocks.MockNotifier{}
	h := NewRelationshipEventHandler(store, live)

	event := events.NewRelationshipEvent(events.FriendRequestAccepted, 9, 2, 1)
	payload, _ := json.Marshal(event)
	store.On("Push", mock.Anything, uint(1), mock.Anything).Return(nil).Once()
	live.On("Deliver", uint(1), mock.MatchedBy(func(n events.Notification) bool {
		return n.Type == events.FriendRequestAccepted && n.FromUserID == 2
	})).Once()

	assert.NoError(t, h.Handle(context.Background(), message(t, payload)))
	live.AssertExpectations(t)
}

func TestHandleSkipsNotifiersWhenStoreFails(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	live := &mocks.MockNotifier{}
	h := NewRelationshipEventHandler(store, live)
	store.On("Push", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	payload, _ := json.Marshal(events.NewRelationshipEvent(events.FriendRequestCreated, 1, 1, 2))
	assert.Error(t, h.Handle(context.Background(), message(t, payload)))
	live.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}
