package models

import "time"

// FriendRequestStatus 定义好友请求的状态
type FriendRequestStatus string

// A request only ever leaves pending once. Cancelled requests are deleted
// rather than given a status of their own.
const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// FriendRequest 代表一个好友请求记录。同一有序 (sender, receiver) 对只能存在一条。
type FriendRequest struct {
	BaseModel
	SenderID   uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair;check:chk_friend_request_not_self,sender_id <> receiver_id" json:"sender_id"`
	ReceiverID uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair;index" json:"receiver_id"`
	Status     FriendRequestStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`

	Sender   *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsPending reports whether the request can still be acted upon.
func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestStatusPending
}

// Involves reports whether userID is the sender or the receiver.
func (r *FriendRequest) Involves(userID uint) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}

// FriendRequestView is the API shape of a request with both parties resolved.
type FriendRequestView struct {
	ID        uint                `json:"id"`
	Sender    *UserBasicInfo      `json:"sender"`
	Receiver  *UserBasicInfo      `json:"receiver"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// View converts a request into its API shape. Parties that were not
// preloaded are reported by id only.
func (r *FriendRequest) View() *FriendRequestView {
	v := &FriendRequestView{
		ID:        r.ID,
		Sender:    &UserBasicInfo{ID: r.SenderID},
		Receiver:  &UserBasicInfo{ID: r.ReceiverID},
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Sender != nil {
		v.Sender = r.Sender.BasicInfo()
	}
	if r.Receiver != nil {
		v.Receiver = r.Receiver.BasicInfo()
	}
	return v
}
