package apiserver

import (
	"net/http"

	"reunion/internal/models"
	"reunion/internal/services"
	"reunion/internal/storage"
)

// FriendHandler serves the friendship ("reunited") endpoints.
type FriendHandler struct {
	svc services.RelationshipService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(svc services.RelationshipService) *FriendHandler {
	return &FriendHandler{svc: svc}
}

// ListFriendships handles GET /api/v1/reunited
func (h *FriendHandler) ListFriendships(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	friendships, err := h.svc.ListFriendships(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list friendships")
		return
	}

	views := make([]*models.FriendshipView, 0, len(friendships))
	for i := range friendships {
		views = append(views, friendships[i].View())
	}
	writeJSONResponse(w, http.StatusOK, views)
}

// MyFriends handles GET /api/v1/reunited/my_friends?page=&page_size=
// An unparsable page or page_size resets both to their defaults.
func (h *FriendHandler) MyFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	page, okPage := queryInt(r, "page")
	pageSize, okSize := queryInt(r, "page_size")
	if !okPage || !okSize {
		page, pageSize = 1, services.DefaultFriendsPageSize
	}

	result, err := h.svc.FriendsPage(r.Context(), userID, page, pageSize)
	if err != nil {
		writeServiceError(w, r, err, "failed to list friends")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// Unfriend handles DELETE /api/v1/reunited/unfriend?user_id=
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeJSONError(w, "user_id parameter is required.", http.StatusBadRequest)
		return
	}
	otherID, err := storage.StrToUint(raw)
	if err != nil {
		writeJSONError(w, "user_id must be a positive integer.", http.StatusBadRequest)
		return
	}

	if err := h.svc.Unfriend(r.Context(), userID, otherID); err != nil {
		writeServiceError(w, r, err, "failed to remove friend")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Friend removed successfully."})
}
