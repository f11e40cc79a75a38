package http

import (
	"net/http"

	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

// Vote responds with the caller's quota after the vote lands.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	ideaID, err := ideaIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	info, err := h.service.Vote(r.Context(), userFromContext(r), ideaID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

func (h *VoteHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	ideaID, err := ideaIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	info, err := h.service.Unvote(r.Context(), userFromContext(r), ideaID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
