// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainHotToColdMovesEverything(t *testing.T) {
	ctx := context.Background()
	vs := testStore(t)

	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f1", "s", 1, 0)))
	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f2", "s", 0, 1)))
	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f3", "s", 1, 1)))

	n, err := vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	hot, err := vs.CountHot(ctx, "effnet")
	require.NoError(t, err)
	assert.Zero(t, hot)

	cold, err := vs.CountCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Equal(t, int64(3), cold)

	got, err := vs.GetCold(ctx, "effnet", "f2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []float32{0, 1}, got.Vector)
}

func TestDrainHotToColdEmptyHot(t *testing.T) {
	ctx := context.Background()
	vs := testStore(t)

	// Hot collection has never been created at all.
	n, err := vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Hot collection exists but holds nothing.
	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f1", "s", 1)))
	_, err = vs.DeleteHotByFileID(ctx, "effnet", "f1")
	require.NoError(t, err)

	n, err = vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainHotToColdConverges(t *testing.T) {
	ctx := context.Background()
	vs := testStore(t)

	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f1", "s", 1, 0)))
	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f2", "s", 0, 1)))

	n, err := vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// A second drain of the now empty hot collection changes nothing.
	n, err = vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Zero(t, n)

	cold, err := vs.CountCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cold)
}

func TestDrainHotToColdOverwritesByKey(t *testing.T) {
	ctx := context.Background()
	vs := testStore(t)

	require.NoError(t, vs.UpsertHot(ctx, "effnet", vec("f1", "s", 1, 0)))
	_, err := vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)

	// Re-embed the same file with the same suite; the drained record must
	// replace the cold one rather than duplicate it.
	newer := vec("f1", "s", 0, 1)
	newer.CreatedAt = time.Now().Add(time.Second)
	require.NoError(t, vs.UpsertHot(ctx, "effnet", newer))

	n, err := vs.DrainHotToCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cold, err := vs.CountCold(ctx, "effnet")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cold)

	got, err := vs.GetCold(ctx, "effnet", "f1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []float32{0, 1}, got.Vector)
}
