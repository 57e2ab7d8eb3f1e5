package memory

import (
	"context"
	"sync"

	"github.com/xenking/summit-checkout/internal/domain/tour"
)

var _ tour.Repository = (*TourRepository)(nil)

// TourRepository is an in-memory tour.Repository. The catalog is written
// once at startup and read-only afterwards.
type TourRepository struct {
	mu       sync.RWMutex
	ordered  []string
	packages map[string]tour.Package
}

// NewTourRepository creates a repository preloaded with the given packages.
func NewTourRepository(packages ...tour.Package) *TourRepository {
	r := &TourRepository{packages: make(map[string]tour.Package, len(packages))}
	for _, p := range packages {
		r.ordered = append(r.ordered, p.ID)
		r.packages[p.ID] = p
	}
	return r
}

// List returns the catalog in insertion order.
func (r *TourRepository) List(_ context.Context) ([]tour.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tour.Package, 0, len(r.ordered))
	for _, id := range r.ordered {
		out = append(out, r.packages[id])
	}
	return out, nil
}

// GetByIDs returns the packages matching ids; missing ids are skipped, the
// caller decides whether absence is an error.
func (r *TourRepository) GetByIDs(_ context.Context, ids []string) ([]tour.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tour.Package, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.packages[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
