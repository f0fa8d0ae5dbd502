package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"reunion/internal/models"
	"reunion/internal/services"
)

// RelationshipHandler serves the friend request ("reunite") endpoints.
type RelationshipHandler struct {
	svc services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(svc services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{svc: svc}
}

// CreateRequestPayload is the body of POST /api/v1/reunite.
type CreateRequestPayload struct {
	ReceiverID uint `json:"receiver_id"`
}

// CreateRequest handles POST /api/v1/reunite
func (h *RelationshipHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	senderID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var payload CreateRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.ReceiverID == 0 {
		writeJSONError(w, "receiver_id is required", http.StatusBadRequest)
		return
	}

	request, err := h.svc.CreateRequest(r.Context(), senderID, payload.ReceiverID)
	if err != nil {
		writeServiceError(w, r, err, "failed to send friend request")
		return
	}
	writeJSONResponse(w, http.StatusCreated, request.View())
}

// ListPending handles GET /api/v1/reunite: pending requests the caller sent or received.
func (h *RelationshipHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListPending)
}

// ListSent handles GET /api/v1/reunite/sent
func (h *RelationshipHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListSent)
}

// ListReceived handles GET /api/v1/reunite/received
func (h *RelationshipHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListReceived)
}

// ListHistory handles GET /api/v1/reunite/history: every request involving the caller.
func (h *RelationshipHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListHistory)
}

func (h *RelationshipHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, uint) ([]models.FriendRequest, error)) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	requests, err := fetch(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list friend requests")
		return
	}

	views := make([]*models.FriendRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, requests[i].View())
	}
	writeJSONResponse(w, http.StatusOK, views)
}

// GetRequest handles GET /api/v1/reunite/{id}
func (h *RelationshipHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	request, err := h.svc.GetRequest(r.Context(), userID, requestID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load friend request")
		return
	}
	writeJSONResponse(w, http.StatusOK, request.View())
}

// transition describes the wording of one request action.
type transition struct {
	run       func(ctx context.Context, actorID, requestID uint) (bool, error)
	forbidden string
	done      string
	noop      string
}

// Accept handles POST /api/v1/reunite/{id}/accept
func (h *RelationshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, transition{
		run:       h.svc.Accept,
		forbidden: "You can only accept requests sent to you.",
		done:      "Friend request accepted.",
		noop:      "This request cannot be accepted.",
	})
}

// Reject handles POST /api/v1/reunite/{id}/reject
func (h *RelationshipHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, transition{
		run:       h.svc.Reject,
		forbidden: "You can only reject requests sent to you.",
		done:      "Friend request rejected.",
		noop:      "This request cannot be rejected.",
	})
}

// Cancel handles POST /api/v1/reunite/{id}/cancel
func (h *RelationshipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, transition{
		run:       h.svc.Cancel,
		forbidden: "You can only cancel requests you sent.",
		done:      "Friend request canceled.",
		noop:      "This request cannot be canceled.",
	})
}

func (h *RelationshipHandler) transition(w http.ResponseWriter, r *http.Request, t transition) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	changed, err := t.run(r.Context(), userID, requestID)
	switch {
	case errors.Is(err, services.ErrNotRequestReceiver), errors.Is(err, services.ErrNotRequestSender):
		writeJSONError(w, t.forbidden, http.StatusForbidden)
	case err != nil:
		writeServiceError(w, r, err, "failed to update friend request")
	case !changed:
		writeJSONError(w, t.noop, http.StatusBadRequest)
	default:
		writeJSONResponse(w, http.StatusOK, MessageResponse{Message: t.done})
	}
}
