package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTable(t *testing.T, name string) *tabular.Table {
	t.Helper()
	table, err := tabular.FromGrid(name, [][]string{
		{"cod_admin", "stock_actual"},
		{"100", "50"},
		{"200", "20"},
	})
	require.NoError(t, err)
	return table
}

func TestInMemoryTableCache_GetSet(t *testing.T) {
	cache := NewInMemoryTableCache()
	defer cache.Close()
	ctx := context.Background()

	table, err := cache.Get(ctx, "stock")
	require.NoError(t, err)
	assert.Nil(t, table)

	require.NoError(t, cache.Set(ctx, "stock", createTestTable(t, "stock"), time.Minute))

	table, err = cache.Get(ctx, "stock")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, "50", table.Cell(0, "stock_actual"))
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, cache.Stats())
}

func TestInMemoryTableCache_ReturnsCopies(t *testing.T) {
	cache := NewInMemoryTableCache()
	defer cache.Close()
	ctx := context.Background()

	original := createTestTable(t, "stock")
	require.NoError(t, cache.Set(ctx, "stock", original, time.Minute))
	original.Rows[0][1] = "changed"

	first, err := cache.Get(ctx, "stock")
	require.NoError(t, err)
	first.Rows[0][1] = "changed too"

	second, err := cache.Get(ctx, "stock")
	require.NoError(t, err)
	assert.Equal(t, "50", second.Cell(0, "stock_actual"))
}

func TestInMemoryTableCache_Expiry(t *testing.T) {
	cache := NewInMemoryTableCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stock", createTestTable(t, "stock"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	table, err := cache.Get(ctx, "stock")
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestInMemoryTableCache_Cleanup(t *testing.T) {
	cache := NewInMemoryTableCache(WithCleanupInterval(10 * time.Millisecond))
	defer cache.Close()

	require.NoError(t, cache.Set(context.Background(), "stock", createTestTable(t, "stock"), 5*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, ok := cache.tables.Load("stock")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestInMemoryTableCache_Delete(t *testing.T) {
	cache := NewInMemoryTableCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stock", createTestTable(t, "stock"), 0))
	require.NoError(t, cache.Set(ctx, "mapeo_productos", createTestTable(t, "mapeo_productos"), 0))
	require.NoError(t, cache.Set(ctx, "other", createTestTable(t, "other"), 0))

	require.NoError(t, cache.Delete(ctx, "stock", "mapeo_productos"))

	for name, want := range map[string]bool{"stock": false, "mapeo_productos": false, "other": true} {
		table, err := cache.Get(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, table != nil, name)
	}
}

func TestInMemoryTableCache_SetNil(t *testing.T) {
	cache := NewInMemoryTableCache()
	defer cache.Close()

	require.NoError(t, cache.Set(context.Background(), "stock", nil, time.Minute))
	table, err := cache.Get(context.Background(), "stock")
	require.NoError(t, err)
	assert.Nil(t, table)

	cache.Close()
	cache.Close()
}
