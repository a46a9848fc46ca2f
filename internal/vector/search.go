// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package vector

import (
	"context"

	"github.com/xiaden/nomarr-sub002/internal/store"
)

// SearchService exposes read-side vector operations: similarity search
// against the cold collection and point lookup with hot fallback.
type SearchService struct {
	store store.VectorStore
}

// NewSearchService creates the search service.
func NewSearchService(st store.VectorStore) *SearchService {
	return &SearchService{store: st}
}

// SearchSimilarTracks runs cold-only similarity search and filters out hits
// scoring below minScore. Records still waiting in hot are never returned.
// When no index exists the store's vector.index.unavailable error
// propagates — callers must learn search is unavailable rather than receive
// a misleadingly empty result.
func (s *SearchService) SearchSimilarTracks(ctx context.Context, backboneID string, query []float32, limit int, minScore float64) ([]store.SearchHit, error) {
	hits, err := s.store.SearchCold(ctx, backboneID, query, limit)
	if err != nil {
		return nil, err
	}

	filtered := hits[:0]
	for _, h := range hits {
		if h.Score >= minScore {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

// GetTrackVector returns the vector for a file: cold first (authoritative
// post-promotion), falling back to hot so a file embedded since the last
// promotion is still retrievable by direct lookup. Nil when both miss.
func (s *SearchService) GetTrackVector(ctx context.Context, backboneID, fileID string) (*store.TrackVector, error) {
	rec, err := s.store.GetCold(ctx, backboneID, fileID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	return s.store.GetHot(ctx, backboneID, fileID)
}
