package handler

import (
	"net/http"

	"github.com/xenking/summit-checkout/internal/domain/tour"
)

type packageView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Difficulty   string `json:"difficulty"`
	DurationDays int    `json:"durationDays"`
	PriceCents   int64  `json:"priceCents"`
	Image        string `json:"image"`
}

type listPackagesResponse struct {
	Success  bool          `json:"success"`
	Packages []packageView `json:"packages"`
}

// ListPackages returns the bookable tour catalog.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.tours.List(r.Context())
	if err != nil {
		respondInternal(w, r, err, "list tour packages")
		return
	}

	out := make([]packageView, len(packages))
	for i, p := range packages {
		out[i] = toPackageView(p)
	}
	respondJSON(w, http.StatusOK, listPackagesResponse{Success: true, Packages: out})
}

func toPackageView(p tour.Package) packageView {
	return packageView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Difficulty:   p.Difficulty,
		DurationDays: p.DurationDays,
		PriceCents:   p.PriceCents,
		Image:        p.Image,
	}
}
