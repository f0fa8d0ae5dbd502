package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFriendshipCanonicalOrder(t *testing.T) {
	f := NewFriendship(9, 3)
	assert.Equal(t, uint(3), f.UserA)
	assert.Equal(t, uint(9), f.UserB)

	assert.Equal(t, uint(9), f.Other(3))
	assert.Equal(t, uint(3), f.Other(9))
	assert.Equal(t, uint(0), f.Other(4))

	a, b := CanonicalPair(5, 2)
	assert.Equal(t, [2]uint{2, 5}, [2]uint{a, b})
}

func TestFriendRequestView(t *testing.T) {
	req := &FriendRequest{
		BaseModel:  BaseModel{ID: 4},
		SenderID:   1,
		ReceiverID: 2,
		Status:     FriendRequestStatusPending,
		Sender:     &User{BaseModel: BaseModel{ID: 1}, Username: "alice", FirstName: "Alice"},
	}

	v := req.View()
	assert.Equal(t, "alice", v.Sender.Username)
	assert.Equal(t, uint(2), v.Receiver.ID)
	assert.Empty(t, v.Receiver.Username)
	assert.True(t, req.IsPending())
	assert.True(t, req.Involves(2))
	assert.False(t, req.Involves(3))
	assert.Equal(t, "4", req.IDString())
}

func TestProfileVisibility(t *testing.T) {
	assert.True(t, ProfileVisibilityPublic.Valid())
	assert.True(t, ProfileVisibilityPrivate.Valid())
	assert.False(t, ProfileVisibility("friends").Valid())
}

func TestFriendshipView(t *testing.T) {
	f := NewFriendship(2, 1)
	f.UserBRef = &User{BaseModel: BaseModel{ID: 2}, Username: "bob"}

	v := f.View()
	assert.Equal(t, uint(1), v.User1.ID)
	assert.Empty(t, v.User1.Username)
	assert.Equal(t, "bob", v.User2.Username)
}
