// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

// Package vector implements the hot/cold lifecycle over embedding vectors:
// ingestion writes land in a write-optimized hot collection, and an
// explicitly-scheduled promotion drains hot into the indexed cold
// collection that similarity search reads.
package vector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xiaden/nomarr-sub002/internal/models"
	"github.com/xiaden/nomarr-sub002/internal/store"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// PromotionEngine runs the promote-and-rebuild maintenance state machine
// for one backbone at a time:
//
//	resolve → snapshot → drop stale index → drain → verify → rebuild → complete
//
// Every step is idempotent or convergent, so a failed run is always safe to
// re-invoke; the engine itself performs no retries and surfaces each step's
// failure unchanged. It must not run concurrently with itself for the same
// backbone — the maintenance service serializes invocations.
type PromotionEngine struct {
	store    store.VectorStore
	resolver models.EmbedDimResolver
	logger   *slog.Logger
}

// NewPromotionEngine creates an engine over a vector store and dimension
// resolver. A nil logger falls back to slog.Default().
func NewPromotionEngine(st store.VectorStore, resolver models.EmbedDimResolver, logger *slog.Logger) *PromotionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromotionEngine{store: st, resolver: resolver, logger: logger}
}

// Run executes one promotion for backboneID with the given nlists index
// parameter.
//
// Intermediate failure states are all recoverable: a resolve or snapshot
// failure mutates nothing; a drain failure leaves undrained records in hot;
// an index build failure leaves hot empty and cold populated but unindexed,
// which the next run's snapshot will not short-circuit past.
func (e *PromotionEngine) Run(ctx context.Context, backboneID string, nlists int) error {
	log := e.logger.With("backbone", backboneID, "run_id", uuid.NewString())
	started := time.Now()

	// Resolve. Nothing has been mutated if this fails.
	embedDim, err := e.resolver.Resolve(backboneID)
	if err != nil {
		return nomerr.Wrapf(err, nomerr.CodeOf(err), "resolving embed dim for %s", backboneID)
	}

	// Snapshot.
	hotCount, err := e.store.CountHot(ctx, backboneID)
	if err != nil {
		return err
	}
	coldCount, err := e.store.CountCold(ctx, backboneID)
	if err != nil {
		return err
	}
	indexed, err := e.store.HasVectorIndex(ctx, backboneID)
	if err != nil {
		return err
	}
	log.Info("promotion starting",
		"embed_dim", embedDim, "nlists", nlists,
		"hot_count", hotCount, "cold_count", coldCount, "index_exists", indexed)

	// Steady state between maintenance windows: nothing to drain and the
	// index is already in place.
	if hotCount == 0 && indexed {
		log.Info("promotion no-op: hot empty and index present")
		return nil
	}

	// Drop stale index. Rebuilding with the old index still attached
	// either wastes memory or risks an inconsistent index if the build is
	// interrupted; availability during promotion is traded for strict
	// eventual correctness.
	if indexed {
		if err := e.store.DropVectorIndex(ctx, backboneID); err != nil {
			return err
		}
		log.Info("dropped stale index")
	}

	// Drain. Convergent upsert-by-key: re-running over a hot collection
	// left by a crashed attempt lands in the same cold state.
	drained, err := e.store.DrainHotToCold(ctx, backboneID)
	if err != nil {
		return err
	}
	log.Info("drained hot to cold", "drained", drained)

	// Verify. A non-empty hot collection here means ingestion raced the
	// drain (or the drain partially failed); building an index over
	// still-arriving data is disallowed, so stop before rebuild. The
	// drained records are already safe in cold and the rest stay in hot
	// for the next attempt.
	remaining, err := e.store.CountHot(ctx, backboneID)
	if err != nil {
		return err
	}
	if remaining != 0 {
		return nomerr.New(nomerr.CodeVectorDrainIncomplete,
			"hot collection not empty after drain; concurrent ingestion likely raced the maintenance run",
			nomerr.FieldBackbone(backboneID), nomerr.Field("remaining", remaining))
	}

	// Rebuild index. On failure the system is left with hot empty and
	// cold populated but unindexed — the next run re-attempts from the
	// drop step, which is a no-op when the index is absent.
	if err := e.store.BuildVectorIndex(ctx, backboneID, embedDim, nlists); err != nil {
		return err
	}

	// Complete.
	finalCold, err := e.store.CountCold(ctx, backboneID)
	if err != nil {
		return err
	}
	log.Info("promotion complete",
		"cold_count", finalCold, "drained", drained, "nlists", nlists,
		"elapsed", time.Since(started))
	return nil
}
