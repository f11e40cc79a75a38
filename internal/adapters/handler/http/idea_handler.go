package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type IdeaHandler struct {
	service ports.IdeaService
}

func NewIdeaHandler(service ports.IdeaService) *IdeaHandler {
	return &IdeaHandler{
		service: service,
	}
}

type createIdeaRequest struct {
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Category       string                `json:"category"`
	UsageFrequency domain.UsageFrequency `json:"usage_frequency"`
}

type updateIdeaRequest struct {
	Status *domain.IdeaStatus `json:"status"`
	Notes  *string            `json:"notes"`
}

func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid page", errBadRequest))
		return
	}
	pageSize, err := intParam(q.Get("page_size"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid page_size", errBadRequest))
		return
	}

	result, err := h.service.ListIdeas(r.Context(), ports.ListIdeasInput{
		ViewerID: userFromContext(r),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Sort:     q.Get("sort"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *IdeaHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	id, err := ideaIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	idea, err := h.service.GetIdea(r.Context(), id, userFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *IdeaHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req createIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body", errBadRequest))
		return
	}

	idea, err := h.service.Submit(r.Context(), ports.SubmitIdeaInput{
		UserID:         userFromContext(r),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		UsageFrequency: req.UsageFrequency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idea)
}

func (h *IdeaHandler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	id, err := ideaIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body", errBadRequest))
		return
	}

	idea, err := h.service.UpdateIdea(r.Context(), ports.UpdateIdeaInput{
		AdminID: userFromContext(r),
		IdeaID:  id,
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, idea)
}

func ideaIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid idea id", errBadRequest)
	}
	return id, nil
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
