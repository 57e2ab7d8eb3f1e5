// Package community exposes read-only club data for the marketing site.
package community

import (
	"context"
	"time"
)

// Expedition is an upcoming group climb announced to the community.
type Expedition struct {
	Name      string    `json:"name"`
	Summit    string    `json:"summit"`
	StartDate time.Time `json:"startDate"`
	SpotsLeft int       `json:"spotsLeft"`
}

// Stats is the aggregate community snapshot served by the read API.
type Stats struct {
	Members       int          `json:"members"`
	SummitsLogged int          `json:"summitsLogged"`
	Expeditions   []Expedition `json:"expeditions"`
}

// Source provides the community snapshot. The site currently serves curated
// static data; a CMS-backed source can replace it without touching handlers.
type Source interface {
	Stats(ctx context.Context) (Stats, error)
}

// StaticSource serves a fixed snapshot.
type StaticSource struct {
	stats Stats
}

// NewStaticSource creates a Source returning the given snapshot.
func NewStaticSource(stats Stats) *StaticSource {
	return &StaticSource{stats: stats}
}

// Stats implements Source.
func (s *StaticSource) Stats(_ context.Context) (Stats, error) {
	return s.stats, nil
}
