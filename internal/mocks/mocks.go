package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"reunion/internal/events"
)

// MockPublisher mocks events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.RelationshipEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockNotificationStore mocks events.NotificationStore.
type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Push(ctx context.Context, userID uint, n events.Notification) error {
	args := m.Called(ctx, userID, n)
	return args.Error(0)
}

func (m *MockNotificationStore) List(ctx context.Context, userID uint, limit int64) ([]events.Notification, error) {
	args := m.Called(ctx, userID, limit)
	var out []events.Notification
	if val := args.Get(0); val != nil {
		out = val.([]events.Notification)
	}
	return out, args.Error(1)
}

// MockNotifier mocks events.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Deliver(userID uint, n events.Notification) {
	m.Called(userID, n)
}

// MockProducer mocks kafka.MessageProducer.
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

func (m *MockProducer) Close() {
	m.Called()
}

// MockTokenBlacklist mocks auth.TokenBlacklist.
type MockTokenBlacklist struct {
	mock.Mock
}

func (m *MockTokenBlacklist) Add(ctx context.Context, jti string, exp time.Time) error {
	args := m.Called(ctx, jti, exp)
	return args.Error(0)
}

func (m *MockTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}
