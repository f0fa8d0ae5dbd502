package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reunion/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	GetRequestByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	FindByPair(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	TransitionStatus(ctx context.Context, requestID uint, from, to models.FriendRequestStatus) (bool, error)
	DeletePending(ctx context.Context, requestID uint) (bool, error)
	ListPendingForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListSent(ctx context.Context, senderID uint) ([]models.FriendRequest, error)
	ListReceived(ctx context.Context, receiverID uint) ([]models.FriendRequest, error)
	ListForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	if request.Status == "" {
		request.Status = models.FriendRequestStatusPending
	}
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequestByID loads a request with both parties. A missing row yields gorm.ErrRecordNotFound.
func (r *gormFriendRequestRepository) GetRequestByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.withParties(ctx).First(&request, requestID).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByPair looks up the request for the ordered (sender, receiver) pair in any status.
// It returns nil, nil when there is none.
func (r *gormFriendRequestRepository) FindByPair(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// TransitionStatus moves a request from one status to another only if it is
// still in the expected status. It reports whether a row changed.
func (r *gormFriendRequestRepository) TransitionStatus(ctx context.Context, requestID uint, from, to models.FriendRequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeletePending hard-deletes a request that is still pending.
func (r *gormFriendRequestRepository) DeletePending(ctx context.Context, requestID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
		Delete(&models.FriendRequest{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListPendingForUser returns pending requests the user sent or received.
func (r *gormFriendRequestRepository) ListPendingForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.list(ctx, "(sender_id = ? OR receiver_id = ?) AND status = ?", userID, userID, models.FriendRequestStatusPending)
}

func (r *gormFriendRequestRepository) ListSent(ctx context.Context, senderID uint) ([]models.FriendRequest, error) {
	return r.list(ctx, "sender_id = ?", senderID)
}

func (r *gormFriendRequestRepository) ListReceived(ctx context.Context, receiverID uint) ([]models.FriendRequest, error) {
	return r.list(ctx, "receiver_id = ?", receiverID)
}

// ListForUser returns every request involving the user, whatever its status.
func (r *gormFriendRequestRepository) ListForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.list(ctx, "sender_id = ? OR receiver_id = ?", userID, userID)
}

func (r *gormFriendRequestRepository) list(ctx context.Context, query string, args ...any) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	err := r.withParties(ctx).
		Where(query, args...).
		Order("created_at DESC, id DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) withParties(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Sender").Preload("Receiver")
}
