package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type UserHandler struct {
	profiles ports.ProfileService
	votes    ports.VoteService
	quota    ports.QuotaService
}

func NewUserHandler(profiles ports.ProfileService, votes ports.VoteService, quota ports.QuotaService) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		votes:    votes,
		quota:    quota,
	}
}

type updateProfileRequest struct {
	Email       string  `json:"email"`
	FullName    *string `json:"full_name"`
	CompanyName *string `json:"company_name"`
}

type votedIdeasResponse struct {
	IdeaIDs []uuid.UUID         `json:"idea_ids"`
	Quota   *domain.QuarterInfo `json:"quota"`
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context(), userFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body", errBadRequest))
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), ports.UpdateProfileInput{
		UserID:      userFromContext(r),
		Email:       req.Email,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	ids, err := h.votes.VotedIdeas(r.Context(), userFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}

	info, err := h.quota.QuarterInfo(r.Context(), userFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, votedIdeasResponse{IdeaIDs: ids, Quota: info})
}

func (h *UserHandler) MyQuota(w http.ResponseWriter, r *http.Request) {
	info, err := h.quota.QuarterInfo(r.Context(), userFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
