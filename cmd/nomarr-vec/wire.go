// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/viper"

	"github.com/xiaden/nomarr-sub002/internal/config"
	"github.com/xiaden/nomarr-sub002/internal/models"
	"github.com/xiaden/nomarr-sub002/internal/store"
	_ "github.com/xiaden/nomarr-sub002/internal/store/sqlite" // register sqlite backend
	"github.com/xiaden/nomarr-sub002/internal/vector"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// app holds the wired subsystems shared by the CLI commands.
type app struct {
	cfg         *config.Config
	vectors     store.VectorStore
	maintenance *vector.MaintenanceService
	search      *vector.SearchService
}

// wireApp loads configuration from the global viper and opens the vector
// store and services. The model registry backs the promotion engine's
// dimension resolver, so registry problems surface when promotion runs,
// not here.
func wireApp() (*app, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, nomerr.Errorf(nomerr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	vs, err := store.NewVectorStore(&store.StorageConfig{Backend: cfg.Storage.Backend}, cfg.Storage.DataDir)
	if err != nil {
		return nil, nomerr.Errorf(nomerr.CodeCLISetupFailure, "creating vector store: %w", err)
	}

	resolver := &lazyResolver{path: cfg.Models.RegistryPath}
	engine := vector.NewPromotionEngine(vs, resolver, slog.Default())

	return &app{
		cfg:         cfg,
		vectors:     vs,
		maintenance: vector.NewMaintenanceService(vs, engine, slog.Default()),
		search:      vector.NewSearchService(vs),
	}, nil
}

// Close releases the underlying store.
func (a *app) Close() error {
	return a.vectors.Close()
}

// lazyResolver defers loading the model registry until the first promotion
// resolves a dimension, so read-only commands work without a registry file.
// In serve mode promotions for different backbones run concurrently, so the
// load is guarded by a mutex. A failed load is retried on the next call
// rather than cached.
type lazyResolver struct {
	path string

	mu       sync.Mutex
	resolver *models.Resolver
}

var _ models.EmbedDimResolver = (*lazyResolver)(nil)

func (l *lazyResolver) Resolve(backboneID string) (int, error) {
	l.mu.Lock()
	if l.resolver == nil {
		reg, err := models.LoadRegistry(l.path)
		if err != nil {
			l.mu.Unlock()
			return 0, err
		}
		l.resolver = models.NewResolver(reg)
	}
	resolver := l.resolver
	l.mu.Unlock()

	return resolver.Resolve(backboneID)
}
