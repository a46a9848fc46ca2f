// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package store

import "context"

// VectorStore manages per-backbone hot and cold vector collections plus the
// cold-only similarity index.
//
// Hot is the only collection written by ingestion and carries no index.
// Cold is written only by promotion and is the search target. Collections
// are created lazily on first write; reads against absent collections
// return nil/zero, never an error.
type VectorStore interface {
	// UpsertHot inserts or replaces the hot record keyed by
	// VectorKey(vec.FileID, vec.ModelSuiteHash). Lazily registers the
	// backbone and creates its hot collection.
	UpsertHot(ctx context.Context, backbone string, vec *TrackVector) error

	// GetHot returns the hot record for a file, or nil if absent. If
	// multiple records exist transiently, the one with the latest
	// CreatedAt wins.
	GetHot(ctx context.Context, backbone, fileID string) (*TrackVector, error)

	// GetCold is GetHot against the cold collection.
	GetCold(ctx context.Context, backbone, fileID string) (*TrackVector, error)

	CountHot(ctx context.Context, backbone string) (int64, error)
	CountCold(ctx context.Context, backbone string) (int64, error)

	// DeleteHotByFileID removes all hot records for a file and returns the
	// count removed. A file that was never embedded yields 0, not an error.
	DeleteHotByFileID(ctx context.Context, backbone, fileID string) (int64, error)
	DeleteColdByFileID(ctx context.Context, backbone, fileID string) (int64, error)

	// EnsureColdCollection idempotently creates the cold collection.
	EnsureColdCollection(ctx context.Context, backbone string) error

	// HasVectorIndex inspects the cold collection's index metadata.
	HasVectorIndex(ctx context.Context, backbone string) (bool, error)

	// DropVectorIndex removes the similarity index. No-op when the cold
	// collection or index does not exist.
	DropVectorIndex(ctx context.Context, backbone string) error

	// BuildVectorIndex creates the similarity index over cold. Returns an
	// error coded vector.index.create.failure when the underlying build
	// fails; callers treat that as fatal to the maintenance run.
	BuildVectorIndex(ctx context.Context, backbone string, embedDim, nlists int) error

	// DrainHotToCold moves every hot record into cold via upsert-by-key,
	// then clears hot, returning the count drained. Convergent: a second
	// drain with no intervening hot writes leaves cold unchanged. Safe on
	// an empty hot collection (returns 0).
	DrainHotToCold(ctx context.Context, backbone string) (int64, error)

	// SearchCold runs similarity search against cold only, ranked by
	// descending score. Fails with vector.index.unavailable when no index
	// exists for the backbone.
	SearchCold(ctx context.Context, backbone string, query []float32, limit int) ([]SearchHit, error)

	// Backbones lists every backbone that has ever received an upsert.
	Backbones(ctx context.Context) ([]string, error)

	Close() error
}
