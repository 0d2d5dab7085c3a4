package directory

import (
	"net/http"
	"strconv"

	"github.com/mkalenga/unigest/internal/transport"
)

// Handler exposes the organizational tree read endpoints.
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

// ListFaculties handles GET /faculties.
func (h *Handler) ListFaculties(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.service.ListFaculties(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, faculties)
}

// ListDepartments handles GET /departments?faculty_id=.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	facultyID, err := optionalIDParam(r, "faculty_id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid faculty_id")
		return
	}

	departments, err := h.service.ListDepartments(r.Context(), facultyID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, departments)
}

// ListPromotions handles GET /promotions?department_id=.
func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	departmentID, err := optionalIDParam(r, "department_id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department_id")
		return
	}

	promotions, err := h.service.ListPromotions(r.Context(), departmentID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, promotions)
}

func optionalIDParam(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
