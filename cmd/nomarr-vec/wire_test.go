// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

const testRegistryYAML = `
heads:
  - name: genre-discogs
    backbone: effnet
    embedding_sidecar:
      outputs:
        - name: embeddings
          output_purpose: embeddings
          shape: [1, 1280]
`

func TestLazyResolverConcurrentResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRegistryYAML), 0o644))

	lr := &lazyResolver{path: path}

	const workers = 8
	dims := make([]int, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dims[i], errs[i] = lr.Resolve("effnet")
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, 1280, dims[i])
	}
}

func TestLazyResolverRetriesAfterLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	lr := &lazyResolver{path: path}

	_, err := lr.Resolve("effnet")
	require.Error(t, err)
	assert.True(t, nomerr.HasCode(err, nomerr.CodeModelsRegistryLoadFailure))

	// The registry appears later; the next call must pick it up.
	require.NoError(t, os.WriteFile(path, []byte(testRegistryYAML), 0o644))

	dim, err := lr.Resolve("effnet")
	require.NoError(t, err)
	assert.Equal(t, 1280, dim)
}
