// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite

import (
	"path/filepath"

	"github.com/xiaden/nomarr-sub002/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", newVectorStore)
}

func newVectorStore(dataPath string) (store.VectorStore, error) {
	return NewVectorStore(filepath.Join(dataPath, "vectors.db"))
}
