package cache

import (
	"context"
	"testing"

	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLocker(t *testing.T) {
	locker := NewLocalRunLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "stock")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "stock")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRunInProgress)
	assert.Contains(t, err.Error(), "stock")

	other, err := locker.Acquire(ctx, "other")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	again, err := locker.Acquire(ctx, "stock")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
