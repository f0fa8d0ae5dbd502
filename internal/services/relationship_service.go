package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"reunion/internal/apperr"
	"reunion/internal/events"
	"reunion/internal/metrics"
	"reunion/internal/models"
	"reunion/internal/storage"
)

var (
	ErrSelfRequest           = apperr.Validation("you cannot send a friend request to yourself")
	ErrReceiverNotFound      = apperr.Validation("receiver does not exist")
	ErrFriendRequestExists   = apperr.Validation("you have already sent a friend request to this user")
	ErrAlreadyFriends        = apperr.Validation("you are already friends with this user")
	ErrFriendRequestNotFound = apperr.NotFound("friend request not found")
	ErrNotRequestReceiver    = fmt.Errorf("%w: only the receiver can respond to this friend request", apperr.ErrPermission)
	ErrNotRequestSender      = fmt.Errorf("%w: you can only cancel requests you sent", apperr.ErrPermission)
	ErrFriendNotFound        = apperr.NotFound("user not found")
	ErrNotFriends            = apperr.NotFound("you are not friends with this user")
)

// errRequestMoved rolls back an accept whose conditional update lost to a
// concurrent transition.
var errRequestMoved = errors.New("friend request left pending during accept")

const (
	DefaultFriendsPageSize = 20
	MaxFriendsPageSize     = 100
)

// Pagination describes one page of a friend list.
type Pagination struct {
	TotalFriends int `json:"total_friends"`
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalPages   int `json:"total_pages"`
}

// FriendsPage is a user's friend list page.
type FriendsPage struct {
	ID         uint                    `json:"id"`
	Username   string                  `json:"username"`
	Friends    []*models.UserBasicInfo `json:"friends"`
	Pagination Pagination              `json:"pagination"`
}

// RelationshipService manages friend requests and friendships.
type RelationshipService interface {
	CreateRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	GetRequest(ctx context.Context, actorID, requestID uint) (*models.FriendRequest, error)
	Accept(ctx context.Context, actorID, requestID uint) (bool, error)
	Reject(ctx context.Context, actorID, requestID uint) (bool, error)
	Cancel(ctx context.Context, actorID, requestID uint) (bool, error)

	ListPending(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListHistory(ctx context.Context, userID uint) ([]models.FriendRequest, error)

	Unfriend(ctx context.Context, userID, otherID uint) error
	ListFriends(ctx context.Context, userID uint) ([]uint, error)
	ListFriendships(ctx context.Context, userID uint) ([]models.Friendship, error)
	FriendsPage(ctx context.Context, userID uint, page, pageSize int) (*FriendsPage, error)
	AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
}

type relationshipService struct {
	db             *gorm.DB // 用于事务
	userRepo       storage.UserRepository
	requestRepo    storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	publisher      events.Publisher
	// txFriendships 构建事务内的好友关系仓库
	txFriendships  func(tx *gorm.DB) storage.FriendshipRepository
}

// NewRelationshipService creates a new RelationshipService instance.
func NewRelationshipService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	requestRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	publisher events.Publisher,
) RelationshipService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &relationshipService{
		db:             db,
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		publisher:      publisher,
		txFriendships:  storage.NewGormFriendshipRepository,
	}
}

// createRequest validates and stores a pending request from sender to receiver.
// Only the ordered pair is unique: B may ask A while A's request to B exists.
func (s *relationshipService) createRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	exists, err := s.userRepo.Exists(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check receiver %d: %w", receiverID, err)
	}
	if !exists {
		return nil, ErrReceiverNotFound
	}

	existing, err := s.requestRepo.FindByPair(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check existing friend request: %w", err)
	}
	if existing != nil {
		return nil, ErrFriendRequestExists
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if areFriends {
		return nil, ErrAlreadyFriends
	}

	request := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发创建同一请求
			return nil, ErrFriendRequestExists
		}
		return nil, fmt.Errorf("create friend request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  request.ID,
		"sender_id":   senderID,
		"receiver_id": receiverID,
	}).Info("friend request created")
	s.publish(ctx, events.NewRelationshipEvent(events.FriendRequestCreated, request.ID, senderID, receiverID))
	return request, nil
}

// GetRequest returns the request when actorID is one of its parties.
// Requests of other users are reported as not found.
func (s *relationshipService) GetRequest(ctx context.Context, actorID, requestID uint) (*models.FriendRequest, error) {
	request, err := s.loadRequest(ctx, s.requestRepo, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Involves(actorID) {
		return nil, ErrFriendRequestNotFound
	}
	return request, nil
}

// accept creates the friendship and marks the request accepted in one
// transaction. It returns false without error when the request is no longer
// pending. Losing the friendship insert to a concurrent accept of the same
// pair yields apperr.ErrConflictRace.
func (s *relationshipService) accept(ctx context.Context, actorID, requestID uint) (bool, error) {
	var request *models.FriendRequest
	accepted := false

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequestRepo := storage.NewGormFriendRequestRepository(tx)
		txFriendshipRepo := s.txFriendships(tx)

		var err error
		request, err = s.loadRequest(ctx, txRequestRepo, requestID)
		if err != nil {
			return err
		}
		if request.ReceiverID != actorID {
			return ErrNotRequestReceiver
		}
		if !request.IsPending() {
			return nil
		}

		areFriends, err := txFriendshipRepo.AreUsersFriends(ctx, request.SenderID, request.ReceiverID)
		if err != nil {
			return fmt.Errorf("check friendship: %w", err)
		}
		if !areFriends {
			if err := txFriendshipRepo.Create(ctx, models.NewFriendship(request.SenderID, request.ReceiverID)); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.ErrConflictRace
				}
				return fmt.Errorf("create friendship: %w", err)
			}
		}

		changed, err := txRequestRepo.TransitionStatus(ctx, requestID, models.FriendRequestStatusPending, models.FriendRequestStatusAccepted)
		if err != nil {
			return fmt.Errorf("update friend request status: %w", err)
		}
		if !changed {
			return errRequestMoved
		}
		accepted = true
		return nil
	})
	if errors.Is(txErr, errRequestMoved) {
		return false, nil
	}
	if txErr != nil {
		return false, txErr
	}

	if accepted {
		logrus.WithFields(logrus.Fields{
			"request_id":  requestID,
			"sender_id":   request.SenderID,
			"receiver_id": request.ReceiverID,
		}).Info("friend request accepted")
		s.publish(ctx, events.NewRelationshipEvent(events.FriendRequestAccepted, requestID, actorID, request.SenderID))
	}
	return accepted, nil
}

// reject marks a pending request rejected. The row is kept.
func (s *relationshipService) reject(ctx context.Context, actorID, requestID uint) (bool, error) {
	request, err := s.loadRequest(ctx, s.requestRepo, requestID)
	if err != nil {
		return false, err
	}
	if request.ReceiverID != actorID {
		return false, ErrNotRequestReceiver
	}
	if !request.IsPending() {
		return false, nil
	}

	changed, err := s.requestRepo.TransitionStatus(ctx, requestID, models.FriendRequestStatusPending, models.FriendRequestStatusRejected)
	if err != nil {
		return false, fmt.Errorf("update friend request status: %w", err)
	}
	if changed {
		s.publish(ctx, events.NewRelationshipEvent(events.FriendRequestRejected, requestID, actorID, request.SenderID))
	}
	return changed, nil
}

// cancel deletes a pending request on behalf of its sender.
func (s *relationshipService) cancel(ctx context.Context, actorID, requestID uint) (bool, error) {
	request, err := s.loadRequest(ctx, s.requestRepo, requestID)
	if err != nil {
		return false, err
	}
	if request.SenderID != actorID {
		return false, ErrNotRequestSender
	}
	if !request.IsPending() {
		return false, nil
	}

	deleted, err := s.requestRepo.DeletePending(ctx, requestID)
	if err != nil {
		return false, fmt.Errorf("delete friend request: %w", err)
	}
	if deleted {
		s.publish(ctx, events.NewRelationshipEvent(events.FriendRequestCanceled, requestID, actorID, request.ReceiverID))
	}
	return deleted, nil
}

func (s *relationshipService) ListPending(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requestRepo.ListPendingForUser(ctx, userID)
}

func (s *relationshipService) ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requestRepo.ListSent(ctx, userID)
}

func (s *relationshipService) ListReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requestRepo.ListReceived(ctx, userID)
}

func (s *relationshipService) ListHistory(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requestRepo.ListForUser(ctx, userID)
}

// unfriend removes the friendship between userID and otherID, whichever
// order it was stored in.
func (s *relationshipService) unfriend(ctx context.Context, userID, otherID uint) error {
	exists, err := s.userRepo.Exists(ctx, otherID)
	if err != nil {
		return fmt.Errorf("check user %d: %w", otherID, err)
	}
	if !exists {
		return ErrFriendNotFound
	}

	deleted, err := s.friendshipRepo.Delete(ctx, userID, otherID)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	if !deleted {
		return ErrNotFriends
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "friend_id": otherID}).Info("friendship removed")
	s.publish(ctx, events.NewRelationshipEvent(events.FriendshipRemoved, 0, userID, otherID))
	return nil
}

// ListFriends returns the ids of userID's friends in ascending order.
func (s *relationshipService) ListFriends(ctx context.Context, userID uint) ([]uint, error) {
	ids, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *relationshipService) ListFriendships(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendshipRepo.ListForUser(ctx, userID)
}

// FriendsPage resolves one page of userID's friends. Page sizes above
// MaxFriendsPageSize are capped and non-positive values fall back to defaults.
func (s *relationshipService) FriendsPage(ctx context.Context, userID uint, page, pageSize int) (*FriendsPage, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	if pageSize <= 0 {
		pageSize = DefaultFriendsPageSize
	}
	if pageSize > MaxFriendsPageSize {
		pageSize = MaxFriendsPageSize
	}
	if page <= 0 {
		page = 1
	}

	ids, err := s.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := len(ids)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	friends, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, ids[start:end])
	if err != nil {
		return nil, fmt.Errorf("resolve friends: %w", err)
	}

	return &FriendsPage{
		ID:       user.ID,
		Username: user.Username,
		Friends:  friends,
		Pagination: Pagination{
			TotalFriends: total,
			Page:         page,
			PageSize:     pageSize,
			TotalPages:   (total + pageSize - 1) / pageSize,
		},
	}, nil
}

func (s *relationshipService) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.friendshipRepo.AreUsersFriends(ctx, userID1, userID2)
}

func (s *relationshipService) CreateRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	request, err := s.createRequest(ctx, senderID, receiverID)
	recordAction(metrics.ActionCreate, err == nil, err)
	return request, err
}

func (s *relationshipService) Accept(ctx context.Context, actorID, requestID uint) (bool, error) {
	ok, err := s.accept(ctx, actorID, requestID)
	recordAction(metrics.ActionAccept, ok, err)
	return ok, err
}

func (s *relationshipService) Reject(ctx context.Context, actorID, requestID uint) (bool, error) {
	ok, err := s.reject(ctx, actorID, requestID)
	recordAction(metrics.ActionReject, ok, err)
	return ok, err
}

func (s *relationshipService) Cancel(ctx context.Context, actorID, requestID uint) (bool, error) {
	ok, err := s.cancel(ctx, actorID, requestID)
	recordAction(metrics.ActionCancel, ok, err)
	return ok, err
}

func (s *relationshipService) Unfriend(ctx context.Context, userID, otherID uint) error {
	err := s.unfriend(ctx, userID, otherID)
	recordAction(metrics.ActionUnfriend, err == nil, err)
	return err
}

func recordAction(action string, ok bool, err error) {
	switch {
	case err != nil:
		metrics.IncRelationshipAction(action, metrics.StatusFailed)
	case ok:
		metrics.IncRelationshipAction(action, metrics.StatusSuccess)
	default:
		metrics.IncRelationshipAction(action, metrics.StatusNoop)
	}
}

func (s *relationshipService) loadRequest(ctx context.Context, repo storage.FriendRequestRepository, requestID uint) (*models.FriendRequest, error) {
	request, err := repo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, fmt.Errorf("load friend request %d: %w", requestID, err)
	}
	return request, nil
}

// publish hands the event to the publisher. Failures are logged and never
// undo the committed change.
func (s *relationshipService) publish(ctx context.Context, event events.RelationshipEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.IncEventPublished(string(event.Type), metrics.StatusFailed)
		logrus.WithFields(logrus.Fields{
			"type":      event.Type,
			"actor_id":  event.ActorID,
			"target_id": event.TargetID,
		}).WithError(err).Warn("failed to publish relationship event")
		return
	}
	metrics.IncEventPublished(string(event.Type), metrics.StatusSuccess)
}
