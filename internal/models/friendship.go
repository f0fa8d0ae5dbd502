package models

import "time"

// Friendship represents a mutual friendship between two users.
// To avoid duplicates and simplify queries, UserA is always the smaller id.
type Friendship struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserA     uint      `gorm:"column:user_a;not null;uniqueIndex:idx_friendship_pair;check:chk_friendship_not_self,user_a <> user_b" json:"user_a"`
	UserB     uint      `gorm:"column:user_b;not null;uniqueIndex:idx_friendship_pair;index" json:"user_b"`
	CreatedAt time.Time `json:"created_at"`

	UserARef *User `gorm:"foreignKey:UserA;constraint:OnDelete:CASCADE" json:"-"`
	UserBRef *User `gorm:"foreignKey:UserB;constraint:OnDelete:CASCADE" json:"-"`
}

// NewFriendship builds a friendship row for the unordered pair {a, b}.
func NewFriendship(a, b uint) *Friendship {
	f := &Friendship{UserA: a, UserB: b}
	f.EnsureCanonicalOrder()
	return f
}

// EnsureCanonicalOrder sets UserA to the smaller ID and UserB to the larger ID.
// This must be called before creating a Friendship record.
func (f *Friendship) EnsureCanonicalOrder() {
	if f.UserA > f.UserB {
		f.UserA, f.UserB = f.UserB, f.UserA
	}
}

// Other returns the id paired with userID, or 0 when userID is not part of the pair.
func (f *Friendship) Other(userID uint) uint {
	switch userID {
	case f.UserA:
		return f.UserB
	case f.UserB:
		return f.UserA
	default:
		return 0
	}
}

// CanonicalPair orders two ids the way friendships are stored.
func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// FriendshipView is the API shape of a friendship with both parties resolved.
type FriendshipView struct {
	ID        uint           `json:"id"`
	User1     *UserBasicInfo `json:"user1"`
	User2     *UserBasicInfo `json:"user2"`
	CreatedAt time.Time      `json:"created_at"`
}

// View converts the row into its API shape. Unloaded parties carry only their id.
func (f *Friendship) View() *FriendshipView {
	v := &FriendshipView{
		ID:        f.ID,
		User1:     &UserBasicInfo{ID: f.UserA},
		User2:     &UserBasicInfo{ID: f.UserB},
		CreatedAt: f.CreatedAt,
	}
	if f.UserARef != nil {
		v.User1 = f.UserARef.BasicInfo()
	}
	if f.UserBRef != nil {
		v.User2 = f.UserBRef.BasicInfo()
	}
	return v
}
