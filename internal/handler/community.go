package handler

import (
	"net/http"

	"github.com/xenking/summit-checkout/internal/domain/community"
)

type communityResponse struct {
	Success bool            `json:"success"`
	Stats   community.Stats `json:"stats"`
}

// CommunityStats serves the aggregate club snapshot for the marketing site.
func (h *Handler) CommunityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.community.Stats(r.Context())
	if err != nil {
		respondInternal(w, r, err, "community stats")
		return
	}
	respondJSON(w, http.StatusOK, communityResponse{Success: true, Stats: stats})
}
