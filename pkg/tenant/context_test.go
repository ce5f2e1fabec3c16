package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollkit/enrollkit/pkg/tenant"
)

func TestContext(t *testing.T) {
	t.Parallel()

	school := &tenant.School{ID: uuid.New(), Slug: "acme"}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithSchool(context.Background(), school)
		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, school, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, school.ID, id)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)
		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("must panics without a school", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustFromContext(context.Background())
		})
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := tenant.LoggerExtractor()

	attr, ok := extract(tenant.WithSchool(context.Background(), school()))
	require.True(t, ok)
	assert.Equal(t, "school", attr.Key)

	_, ok = extract(context.Background())
	assert.False(t, ok)
}

func school() *tenant.School {
	return &tenant.School{ID: uuid.New(), Slug: "acme"}
}
