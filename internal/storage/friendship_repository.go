package storage

import (
	"context"

	"gorm.io/gorm"

	"reunion/internal/models"
)

// FriendshipRepository defines the interface for friendship data operations.
// Every method accepts the pair in either order.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Friendship, error)
	Delete(ctx context.Context, userID1, userID2 uint) (bool, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GormFriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

// Create inserts the friendship in canonical order. A concurrent insert of the
// same pair fails with gorm.ErrDuplicatedKey.
func (r *gormFriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	friendship.EnsureCanonicalOrder()
	return r.db.WithContext(ctx).Create(friendship).Error
}

// AreUsersFriends checks if two users are already friends.
func (r *gormFriendshipRepository) AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	a, b := models.CanonicalPair(userID1, userID2)
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_a = ? AND user_b = ?", a, b).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFriendIDs retrieves the ids of everyone paired with userID, in either column.
func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	// userID 可能在 user_a 或 user_b 列，分两次查询取"另一方"
	var idsAsA []uint
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_a = ?", userID).
		Pluck("user_b", &idsAsA).Error
	if err != nil {
		return nil, err
	}

	var idsAsB []uint
	err = r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_b = ?", userID).
		Pluck("user_a", &idsAsB).Error
	if err != nil {
		return nil, err
	}

	return append(idsAsA, idsAsB...), nil
}

// ListForUser returns the friendship rows involving userID, newest first.
func (r *gormFriendshipRepository) ListForUser(ctx context.Context, userID uint) ([]models.Friendship, error) {
	friendships := []models.Friendship{}
	err := r.db.WithContext(ctx).
		Preload("UserARef").
		Preload("UserBRef").
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&friendships).Error
	return friendships, err
}

// Delete removes the friendship of the unordered pair and reports whether a row existed.
func (r *gormFriendshipRepository) Delete(ctx context.Context, userID1, userID2 uint) (bool, error) {
	a, b := models.CanonicalPair(userID1, userID2)
	result := r.db.WithContext(ctx).
		Where("user_a = ? AND user_b = ?", a, b).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
