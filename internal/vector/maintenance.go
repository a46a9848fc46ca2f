// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package vector

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/xiaden/nomarr-sub002/internal/store"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// nlists bounds for the index-size heuristic.
const (
	nlistsMin = 10
	nlistsMax = 100
)

// ComputeNLists returns the index partitioning parameter for a collection
// of the given total size: clamp(round(sqrt(total)), 10, 100).
func ComputeNLists(totalVectors int64) int {
	if totalVectors < 0 {
		totalVectors = 0
	}
	n := int(math.Round(math.Sqrt(float64(totalVectors))))
	if n < nlistsMin {
		return nlistsMin
	}
	if n > nlistsMax {
		return nlistsMax
	}
	return n
}

// MaintenanceService exposes the operator-facing lifecycle operations:
// triggering promotion, reporting hot/cold statistics, and cascading
// deletes across all known backbones.
//
// Promotion is single-flight per backbone: a second PromoteAndRebuild for a
// backbone whose run is still in progress fails fast with a conflict error
// rather than queueing, enforcing the serialization the drain step requires.
type MaintenanceService struct {
	store  store.VectorStore
	engine *PromotionEngine
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// NewMaintenanceService creates the maintenance service. A nil logger falls
// back to slog.Default().
func NewMaintenanceService(st store.VectorStore, engine *PromotionEngine, logger *slog.Logger) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceService{
		store:    st,
		engine:   engine,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// acquire marks a backbone's promotion as in progress. Returns false when a
// run is already in flight.
func (s *MaintenanceService) acquire(backboneID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[backboneID] {
		return false
	}
	s.inflight[backboneID] = true
	return true
}

func (s *MaintenanceService) release(backboneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, backboneID)
}

// PromoteAndRebuild drains the backbone's hot collection into cold and
// rebuilds the similarity index, blocking until the full state machine
// completes or fails. When nlists <= 0 it is computed from the combined
// hot+cold size via ComputeNLists.
func (s *MaintenanceService) PromoteAndRebuild(ctx context.Context, backboneID string, nlists int) error {
	if !s.acquire(backboneID) {
		return nomerr.New(nomerr.CodeVectorPromotionConflict,
			"promotion already in progress for backbone", nomerr.FieldBackbone(backboneID))
	}
	defer s.release(backboneID)

	if nlists <= 0 {
		hot, err := s.store.CountHot(ctx, backboneID)
		if err != nil {
			return err
		}
		cold, err := s.store.CountCold(ctx, backboneID)
		if err != nil {
			return err
		}
		nlists = ComputeNLists(hot + cold)
	}

	return s.engine.Run(ctx, backboneID, nlists)
}

// GetHotColdStats reports collection sizes and index presence. Zero-valued
// for a backbone that has never received a vector — never an error.
func (s *MaintenanceService) GetHotColdStats(ctx context.Context, backboneID string) (store.HotColdStats, error) {
	var stats store.HotColdStats

	hot, err := s.store.CountHot(ctx, backboneID)
	if err != nil {
		return stats, err
	}
	cold, err := s.store.CountCold(ctx, backboneID)
	if err != nil {
		return stats, err
	}
	indexed, err := s.store.HasVectorIndex(ctx, backboneID)
	if err != nil {
		return stats, err
	}

	stats.HotCount = hot
	stats.ColdCount = cold
	stats.IndexExists = indexed
	return stats, nil
}

// DeleteVectorsByFileID removes every vector for a file across all known
// backbones, hot and cold, returning the total count removed. A file that
// was never embedded under some or all backbones yields 0 for those,
// not an error.
func (s *MaintenanceService) DeleteVectorsByFileID(ctx context.Context, fileID string) (int64, error) {
	backbones, err := s.store.Backbones(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, b := range backbones {
		n, err := s.store.DeleteHotByFileID(ctx, b, fileID)
		if err != nil {
			return total, err
		}
		total += n

		n, err = s.store.DeleteColdByFileID(ctx, b, fileID)
		if err != nil {
			return total, err
		}
		total += n
	}

	if total > 0 {
		s.logger.Info("deleted vectors for file", "file_id", fileID, "count", total)
	}
	return total, nil
}
