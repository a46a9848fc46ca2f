// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package store

import (
	"sync"

	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// StorageConfig selects the storage backend for vector collections.
type StorageConfig struct {
	Backend string
}

// VectorStoreFactory creates a vector store rooted at a data directory.
type VectorStoreFactory func(dataPath string) (VectorStore, error)

var (
	vectorFactories = map[string]VectorStoreFactory{}
	factoriesMu     sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). Goroutine-safe.
func RegisterBackend(name string, factory VectorStoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	vectorFactories[name] = factory
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewVectorStore creates the vector store for the configured backend.
// The dataPath directory is used to derive database file paths.
func NewVectorStore(cfg *StorageConfig, dataPath string) (VectorStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := vectorFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, nomerr.Errorf(nomerr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	return factory(dataPath)
}
