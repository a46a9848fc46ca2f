// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package models

import (
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// EmbedDimResolver derives embedding dimensionality for a backbone.
// Implemented by Resolver; the interface exists so the promotion engine can
// be tested without registry files.
type EmbedDimResolver interface {
	Resolve(backboneID string) (int, error)
}

// Resolver resolves embedding dimensions from static registry metadata.
// It is a pure read of registry state — no caching, since resolution only
// happens during maintenance, never on the ingestion hot path.
type Resolver struct {
	reg *Registry
}

var _ EmbedDimResolver = (*Resolver)(nil)

// NewResolver creates a Resolver over a loaded registry.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve returns the embedding dimensionality for backboneID: the last
// dimension of the first embeddings-purpose output shape declared by any
// head referencing the backbone.
//
// Fails with models.backbone.not_found when no head references the
// backbone, and models.embed_dim.undetermined when heads exist but none
// declares an embeddings-purpose output with a usable shape.
func (r *Resolver) Resolve(backboneID string) (int, error) {
	heads := r.reg.HeadsFor(backboneID)
	if len(heads) == 0 {
		return 0, nomerr.New(nomerr.CodeModelsBackboneNotFound,
			"no head references backbone", nomerr.FieldBackbone(backboneID))
	}

	for _, h := range heads {
		if h.Sidecar == nil {
			continue
		}
		for _, out := range h.Sidecar.Outputs {
			if out.Purpose != PurposeEmbeddings || len(out.Shape) == 0 {
				continue
			}
			dim := out.Shape[len(out.Shape)-1]
			if dim > 0 {
				return dim, nil
			}
		}
	}

	return 0, nomerr.New(nomerr.CodeModelsEmbedDimUndetermined,
		"no embeddings-purpose output declares a shape", nomerr.FieldBackbone(backboneID))
}
