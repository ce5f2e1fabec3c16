package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollkit/enrollkit/pkg/pg"
)

// pgStore is the PostgreSQL RecordStore. Every write is a single UPDATE
// scoped by tenant id, which gives the engine its row-level atomicity:
// concurrent webhook deliveries to the same school resolve last-write-wins
// by processing order, and other schools' rows are untouched by design.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a RecordStore backed by the given connection pool.
func NewPgStore(pool *pgxpool.Pool) RecordStore {
	return &pgStore{pool: pool}
}

const recordColumns = `tenant_id, slug, plan, processor_customer_id,
	processor_subscription_id, processor_subscription_status, is_active,
	cancel_at, cancel_at_period_end, current_period_end, created_at, updated_at`

func (s *pgStore) Create(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.TenantID, rec.Slug, rec.Plan, rec.CustomerID,
		rec.SubscriptionID, rec.SubscriptionStatus, rec.IsActive,
		rec.CancelAt, rec.CancelAtPeriodEnd, rec.CurrentPeriodEnd,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrRecordAlreadyExists
		}
		return err
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, tenantID uuid.UUID) (Record, error) {
	return s.queryOne(ctx, `SELECT `+recordColumns+`
		FROM billing_records WHERE tenant_id = $1`, tenantID)
}

func (s *pgStore) GetBySlug(ctx context.Context, slug string) (Record, error) {
	return s.queryOne(ctx, `SELECT `+recordColumns+`
		FROM billing_records WHERE slug = $1`, slug)
}

func (s *pgStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (Record, error) {
	if subscriptionID == "" {
		return Record{}, ErrRecordNotFound
	}
	return s.queryOne(ctx, `SELECT `+recordColumns+`
		FROM billing_records WHERE processor_subscription_id = $1`, subscriptionID)
}

func (s *pgStore) Update(ctx context.Context, rec Record) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_records SET
			slug = $2,
			plan = $3,
			processor_customer_id = $4,
			processor_subscription_id = $5,
			processor_subscription_status = $6,
			is_active = $7,
			cancel_at = $8,
			cancel_at_period_end = $9,
			current_period_end = $10,
			updated_at = now()
		WHERE tenant_id = $1`,
		rec.TenantID, rec.Slug, rec.Plan, rec.CustomerID,
		rec.SubscriptionID, rec.SubscriptionStatus, rec.IsActive,
		rec.CancelAt, rec.CancelAtPeriodEnd, rec.CurrentPeriodEnd,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *pgStore) ListActive(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+`
		FROM billing_records WHERE is_active ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgStore) queryOne(ctx context.Context, query string, arg any) (Record, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return Record{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, ErrRecordNotFound
	}
	return scanRecord(rows)
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.TenantID, &rec.Slug, &rec.Plan, &rec.CustomerID,
		&rec.SubscriptionID, &rec.SubscriptionStatus, &rec.IsActive,
		&rec.CancelAt, &rec.CancelAtPeriodEnd, &rec.CurrentPeriodEnd,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
