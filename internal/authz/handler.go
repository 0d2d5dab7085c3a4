package authz

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/mkalenga/unigest/internal"
	"github.com/mkalenga/unigest/internal/transport"
)

// Handler exposes grant administration over HTTP. Routes are mounted behind
// the manage_roles permission gate; see transport/rest.
type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(base *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		BaseHandler: base,
		service:     service,
	}
}

// CreateGrant handles POST /grants.
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	actorID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto GrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	grant, err := h.service.Grant(r.Context(), dto.ToRequest(actorID))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, grant)
}

// RevokeGrant handles DELETE /grants.
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	var dto RevokeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	revoked, err := h.service.Revoke(r.Context(), dto.UserID, Role(dto.Role), dto.AnchorsOrNil())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RevokeResponse{Revoked: revoked})
}

// GetAccessScope handles GET /users/{id}/access-scope.
func (h *Handler) GetAccessScope(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	scope, err := h.service.AccessScope(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, scope)
}
