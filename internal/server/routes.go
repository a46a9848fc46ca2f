// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/xiaden/nomarr-sub002/internal/store"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "ingest-vector",
		Method:      http.MethodPost,
		Path:        "/api/v1/backbones/{backbone}/vectors",
		Summary:     "Upsert a vector into the hot collection",
		Tags:        []string{"vectors"},
	}, s.handleIngestVector)

	huma.Register(s.api, huma.Operation{
		OperationID: "promote-backbone",
		Method:      http.MethodPost,
		Path:        "/api/v1/backbones/{backbone}/promote",
		Summary:     "Drain hot to cold and rebuild the similarity index",
		Tags:        []string{"maintenance"},
	}, s.handlePromote)

	huma.Register(s.api, huma.Operation{
		OperationID: "backbone-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/backbones/{backbone}/stats",
		Summary:     "Hot/cold collection statistics",
		Tags:        []string{"maintenance"},
	}, s.handleStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-similar",
		Method:      http.MethodPost,
		Path:        "/api/v1/backbones/{backbone}/search",
		Summary:     "Similarity search against the cold collection",
		Tags:        []string{"search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-track-vector",
		Method:      http.MethodGet,
		Path:        "/api/v1/backbones/{backbone}/track-vector",
		Summary:     "Point lookup with hot fallback",
		Tags:        []string{"search"},
	}, s.handleGetTrackVector)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-file-vectors",
		Method:      http.MethodDelete,
		Path:        "/api/v1/vectors",
		Summary:     "Delete all vectors for a file across every backbone",
		Tags:        []string{"vectors"},
	}, s.handleDeleteFileVectors)
}

// --- Request/Response types for huma ---

type ingestVectorInput struct {
	Backbone string `path:"backbone"`
	Body     struct {
		FileID         string    `json:"file_id" minLength:"1" doc:"Owning audio file reference"`
		ModelSuiteHash string    `json:"model_suite_hash" minLength:"1" doc:"Embedder+config identity"`
		EmbedDim       int       `json:"embed_dim" minimum:"1" doc:"Declared vector dimensionality"`
		Vector         []float32 `json:"vector" doc:"Embedding components, length == embed_dim"`
		NumSegments    int       `json:"num_segments,omitempty" doc:"Audio segments pooled into this embedding"`
	}
}
type ingestVectorOutput struct {
	Body struct {
		Key string `json:"key" doc:"Deterministic record key"`
	}
}

type promoteInput struct {
	Backbone string `path:"backbone"`
	Body     struct {
		NLists int `json:"nlists,omitempty" minimum:"0" doc:"Index partitioning override; 0 = computed"`
	}
}
type promoteOutput struct {
	Body struct {
		Stats store.HotColdStats `json:"stats"`
	}
}

type backboneInput struct {
	Backbone string `path:"backbone"`
}
type statsOutput struct {
	Body store.HotColdStats
}

type searchInput struct {
	Backbone string `path:"backbone"`
	Body     struct {
		Vector   []float32 `json:"vector" doc:"Query vector"`
		Limit    int       `json:"limit,omitempty" minimum:"0" maximum:"1000" doc:"Max results (default 10)"`
		MinScore float64   `json:"min_score,omitempty" doc:"Drop hits scoring below this"`
	}
}

// searchHit mirrors store.SearchHit without the raw embedding payload.
type searchHit struct {
	FileID         string    `json:"file_id"`
	ModelSuiteHash string    `json:"model_suite_hash"`
	Score          float64   `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}
type searchOutput struct {
	Body struct {
		Hits []searchHit `json:"hits"`
	}
}

type getTrackVectorInput struct {
	Backbone string `path:"backbone"`
	FileID   string `query:"file_id" required:"true" doc:"Owning audio file reference"`
}
type getTrackVectorOutput struct {
	Body struct {
		FileID         string    `json:"file_id"`
		ModelSuiteHash string    `json:"model_suite_hash"`
		EmbedDim       int       `json:"embed_dim"`
		Vector         []float32 `json:"vector"`
		NumSegments    int       `json:"num_segments"`
		CreatedAt      time.Time `json:"created_at"`
	}
}

type deleteFileVectorsInput struct {
	FileID string `query:"file_id" required:"true" doc:"Owning audio file reference"`
}
type deleteFileVectorsOutput struct {
	Body struct {
		Deleted int64 `json:"deleted" doc:"Total records removed across all backbones"`
	}
}

// --- Handlers ---

// humaError maps a coded service error onto the matching huma status error.
func humaError(err error, msg string) error {
	switch nomerr.HTTPStatus(err) {
	case http.StatusNotFound:
		return huma.Error404NotFound(msg, err)
	case http.StatusConflict:
		return huma.Error409Conflict(msg, err)
	case http.StatusBadRequest:
		return huma.Error400BadRequest(msg, err)
	case http.StatusServiceUnavailable:
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func (s *Server) handleIngestVector(ctx context.Context, input *ingestVectorInput) (*ingestVectorOutput, error) {
	rec := &store.TrackVector{
		FileID:         input.Body.FileID,
		ModelSuiteHash: input.Body.ModelSuiteHash,
		EmbedDim:       input.Body.EmbedDim,
		Vector:         input.Body.Vector,
		NumSegments:    input.Body.NumSegments,
	}
	if err := s.vectors.UpsertHot(ctx, input.Backbone, rec); err != nil {
		return nil, humaError(err, "ingesting vector")
	}

	out := &ingestVectorOutput{}
	out.Body.Key = store.VectorKey(input.Body.FileID, input.Body.ModelSuiteHash)
	return out, nil
}

func (s *Server) handlePromote(ctx context.Context, input *promoteInput) (*promoteOutput, error) {
	if err := s.maintenance.PromoteAndRebuild(ctx, input.Backbone, input.Body.NLists); err != nil {
		return nil, humaError(err, fmt.Sprintf("promoting backbone %q", input.Backbone))
	}

	stats, err := s.maintenance.GetHotColdStats(ctx, input.Backbone)
	if err != nil {
		return nil, humaError(err, "reading stats after promotion")
	}

	out := &promoteOutput{}
	out.Body.Stats = stats
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, input *backboneInput) (*statsOutput, error) {
	stats, err := s.maintenance.GetHotColdStats(ctx, input.Backbone)
	if err != nil {
		return nil, humaError(err, "reading backbone stats")
	}
	return &statsOutput{Body: stats}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	limit := input.Body.Limit
	if limit <= 0 {
		limit = 10
	}

	hits, err := s.search.SearchSimilarTracks(ctx, input.Backbone, input.Body.Vector, limit, input.Body.MinScore)
	if err != nil {
		return nil, humaError(err, "searching similar tracks")
	}

	out := &searchOutput{}
	out.Body.Hits = make([]searchHit, len(hits))
	for i, h := range hits {
		out.Body.Hits[i] = searchHit{
			FileID:         h.Vector.FileID,
			ModelSuiteHash: h.Vector.ModelSuiteHash,
			Score:          h.Score,
			CreatedAt:      h.Vector.CreatedAt,
		}
	}
	return out, nil
}

func (s *Server) handleGetTrackVector(ctx context.Context, input *getTrackVectorInput) (*getTrackVectorOutput, error) {
	rec, err := s.search.GetTrackVector(ctx, input.Backbone, input.FileID)
	if err != nil {
		return nil, humaError(err, "reading track vector")
	}
	if rec == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("no vector for file %q under backbone %q", input.FileID, input.Backbone))
	}

	out := &getTrackVectorOutput{}
	out.Body.FileID = rec.FileID
	out.Body.ModelSuiteHash = rec.ModelSuiteHash
	out.Body.EmbedDim = rec.EmbedDim
	out.Body.Vector = rec.Vector
	out.Body.NumSegments = rec.NumSegments
	out.Body.CreatedAt = rec.CreatedAt
	return out, nil
}

func (s *Server) handleDeleteFileVectors(ctx context.Context, input *deleteFileVectorsInput) (*deleteFileVectorsOutput, error) {
	deleted, err := s.maintenance.DeleteVectorsByFileID(ctx, input.FileID)
	if err != nil {
		return nil, humaError(err, "deleting file vectors")
	}

	out := &deleteFileVectorsOutput{}
	out.Body.Deleted = deleted
	return out, nil
}
