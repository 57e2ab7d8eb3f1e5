package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/summit-checkout/internal/domain/tour"
)

const (
	listPackagesSQL = `SELECT id, name, description, difficulty, duration_days, price_cents, image
		FROM tour_packages ORDER BY id`

	getPackagesByIDsSQL = `SELECT id, name, description, difficulty, duration_days, price_cents, image
		FROM tour_packages WHERE id = ANY($1)`
)

var _ tour.Repository = (*TourRepository)(nil)

// TourRepository implements tour.Repository backed by PostgreSQL.
type TourRepository struct {
	pool *pgxpool.Pool
}

// NewTourRepository returns a TourRepository that uses the given pool.
func NewTourRepository(pool *pgxpool.Pool) *TourRepository {
	return &TourRepository{pool: pool}
}

// List returns the full package catalog ordered by ID.
func (r *TourRepository) List(ctx context.Context) ([]tour.Package, error) {
	rows, err := r.pool.Query(ctx, listPackagesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing tour packages: %w", err)
	}
	return pgx.CollectRows(rows, scanPackage)
}

// GetByIDs returns packages matching any of the given IDs. Missing IDs are
// simply absent from the result.
func (r *TourRepository) GetByIDs(ctx context.Context, ids []string) ([]tour.Package, error) {
	rows, err := r.pool.Query(ctx, getPackagesByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting tour packages by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanPackage)
}

func scanPackage(row pgx.CollectableRow) (tour.Package, error) {
	var (
		p    tour.Package
		days int32
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Difficulty,
		&days, &p.PriceCents, &p.Image,
	)
	p.DurationDays = int(days)
	return p, err
}
