package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollkit/enrollkit/pkg/billing"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create and lookups", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		rec := billing.NewRecord(uuid.New(), "acme")
		rec.SubscriptionID = "sub_acme"
		require.NoError(t, store.Create(ctx, rec))

		got, err := store.Get(ctx, rec.TenantID)
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		got, err = store.GetBySlug(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, rec.TenantID, got.TenantID)

		got, err = store.GetBySubscriptionID(ctx, "sub_acme")
		require.NoError(t, err)
		assert.Equal(t, rec.TenantID, got.TenantID)
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		rec := billing.NewRecord(uuid.New(), "acme")
		require.NoError(t, store.Create(ctx, rec))
		assert.ErrorIs(t, store.Create(ctx, rec), billing.ErrRecordAlreadyExists)
	})

	t.Run("missing records", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)
		_, err = store.GetBySlug(ctx, "ghost")
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)
		_, err = store.GetBySubscriptionID(ctx, "sub_ghost")
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)
	})

	t.Run("empty subscription id never matches", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		require.NoError(t, store.Create(ctx, billing.NewRecord(uuid.New(), "acme")))

		_, err := store.GetBySubscriptionID(ctx, "")
		assert.ErrorIs(t, err, billing.ErrRecordNotFound)
	})

	t.Run("update replaces and stamps", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		rec := billing.NewRecord(uuid.New(), "acme")
		require.NoError(t, store.Create(ctx, rec))

		rec.Plan = billing.PlanStarter
		rec.IsActive = true
		require.NoError(t, store.Update(ctx, rec))

		got, err := store.Get(ctx, rec.TenantID)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanStarter, got.Plan)
		assert.True(t, got.UpdatedAt.After(rec.CreatedAt) || got.UpdatedAt.Equal(rec.CreatedAt))

		assert.ErrorIs(t, store.Update(ctx, billing.NewRecord(uuid.New(), "ghost")), billing.ErrRecordNotFound)
	})

	t.Run("updates are scoped to one record", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		acme := billing.NewRecord(uuid.New(), "acme")
		beta := billing.NewRecord(uuid.New(), "beta")
		beta.Plan = billing.PlanPro
		require.NoError(t, store.Create(ctx, acme))
		require.NoError(t, store.Create(ctx, beta))

		acme.Plan = billing.PlanStarter
		require.NoError(t, store.Update(ctx, acme))

		got, err := store.Get(ctx, beta.TenantID)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanPro, got.Plan)
	})

	t.Run("list active sorted by slug", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		for _, slug := range []string{"zeta", "alpha", "mid"} {
			rec := billing.NewRecord(uuid.New(), slug)
			require.NoError(t, store.Create(ctx, rec))
		}
		locked := billing.NewRecord(uuid.New(), "locked")
		locked.IsActive = false
		require.NoError(t, store.Create(ctx, locked))

		recs, err := store.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "alpha", recs[0].Slug)
		assert.Equal(t, "mid", recs[1].Slug)
		assert.Equal(t, "zeta", recs[2].Slug)
	})
}
