// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xiaden/nomarr-sub002/internal/store"
	"github.com/xiaden/nomarr-sub002/internal/store/sqlite"
)

// testStore opens a VectorStore over a temp database.
func testStore(t *testing.T) *sqlite.VectorStore {
	t.Helper()
	vs, err := sqlite.NewVectorStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })
	return vs
}

// vec builds a TrackVector for tests; the store derives the key.
func vec(fileID, suiteHash string, components ...float32) *store.TrackVector {
	return &store.TrackVector{
		FileID:         fileID,
		ModelSuiteHash: suiteHash,
		EmbedDim:       len(components),
		Vector:         components,
		NumSegments:    1,
		CreatedAt:      time.Now(),
	}
}
