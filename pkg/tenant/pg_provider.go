package tenant

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollkit/enrollkit/pkg/pg"
)

// pgProvider is the PostgreSQL-backed school Provider. Lookups run on
// every request; the schools table is small and the slug column is
// indexed, so there is no cache in front of it.
type pgProvider struct {
	pool *pgxpool.Pool
}

// NewPgProvider returns a Provider backed by the given connection pool.
func NewPgProvider(pool *pgxpool.Pool) Provider {
	return &pgProvider{pool: pool}
}

func (p *pgProvider) GetBySlug(ctx context.Context, slug string) (*School, error) {
	var (
		school    School
		overrides []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, slug, name, contact_email, feature_overrides, created_at
		FROM schools WHERE slug = $1`, slug,
	).Scan(&school.ID, &school.Slug, &school.Name, &school.ContactEmail,
		&overrides, &school.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, err
	}

	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &school.FeatureOverrides); err != nil {
			return nil, err
		}
	}
	return &school, nil
}
