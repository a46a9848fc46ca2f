// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package store

import "time"

// TrackVector is one embedding record: one per (file, model-suite) pair.
type TrackVector struct {
	// Key is the deterministic content key derived from FileID and
	// ModelSuiteHash. Repeated upserts for the same pair converge to a
	// single record. The store derives it on every write; any
	// caller-supplied value is ignored.
	Key string

	// FileID references the owning audio file. Foreign reference only —
	// the vector lifecycle never owns file records.
	FileID string

	// ModelSuiteHash identifies the embedder+config that produced this
	// vector. Re-embedding with a different suite yields a distinct Key.
	ModelSuiteHash string

	// EmbedDim is the declared dimensionality of Vector.
	EmbedDim int

	// Vector holds the pooled embedding components, len == EmbedDim.
	Vector []float32

	// NumSegments is the count of audio segments pooled into this
	// embedding. Provenance only.
	NumSegments int

	// CreatedAt is the logical timestamp of the last write. Used only to
	// pick the most recent record when duplicates exist transiently.
	CreatedAt time.Time
}

// SearchHit is a single similarity-search result. Score is a similarity
// (higher = closer), derived from cosine distance.
type SearchHit struct {
	Vector *TrackVector
	Score  float64
}

// HotColdStats reports collection sizes and index presence for one backbone.
// All fields are zero-valued when nothing has ever been written.
type HotColdStats struct {
	HotCount    int64 `json:"hot_count"`
	ColdCount   int64 `json:"cold_count"`
	IndexExists bool  `json:"index_exists"`
}
