package rules

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *DBStore {
	t.Helper()
	store, err := OpenDBStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestDBStoreSeedAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	supID := uuid.New()
	active := Rule{
		ID:                   uuid.New(),
		TextPattern:          "bidfood",
		SupplierID:           &supID,
		SiteNameReplacements: []string{"Depot"},
		Priority:             7,
		IsActive:             true,
	}
	inactive := Rule{ID: uuid.New(), TextPattern: "old supplier", Priority: 1, IsActive: false}

	require.NoError(t, store.Seed(ctx, []Rule{active, inactive}))

	got, err := store.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
	assert.Equal(t, "bidfood", got[0].TextPattern)
	assert.Equal(t, 7, got[0].Priority)
	require.NotNil(t, got[0].SupplierID)
	assert.Equal(t, supID, *got[0].SupplierID)
	assert.Equal(t, []string{"Depot"}, got[0].SiteNameReplacements)
	assert.Nil(t, got[0].DefaultCategoryID)
}

func TestDBStoreSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	r := Rule{ID: uuid.New(), TextPattern: "brakes", Priority: 3, IsActive: true}
	require.NoError(t, store.Seed(ctx, []Rule{r}))

	r.Priority = 9
	require.NoError(t, store.Seed(ctx, []Rule{r}))

	got, err := store.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Priority)
}
