package student

import (
	"net/http"
	"strconv"

	"github.com/mkalenga/unigest/internal"
	"github.com/mkalenga/unigest/internal/transport"
)

// Handler exposes the scope-filtered student listing.
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

type listResponse struct {
	Students []Student `json:"students"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// ListStudents handles GET /students?limit=&offset=.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	callerID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	students, total, err := h.service.ListVisibleStudents(r.Context(), callerID, limit, offset)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, listResponse{
		Students: students,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}
