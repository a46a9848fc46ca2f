// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

// Package models reads the static model registry: the set of tagging heads
// discovered on disk, each tied to an embedding backbone and optionally
// carrying an embedding sidecar that declares the model's outputs.
package models

import (
	"os"

	"gopkg.in/yaml.v3"

	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// PurposeEmbeddings marks a declared output as the pooled embedding tensor.
const PurposeEmbeddings = "embeddings"

// Output is one declared output of an embedding sidecar.
type Output struct {
	Name    string `yaml:"name"`
	Purpose string `yaml:"output_purpose"`
	Shape   []int  `yaml:"shape,flow"`
}

// EmbeddingSidecar describes the embedding model that feeds a head.
type EmbeddingSidecar struct {
	Outputs []Output `yaml:"outputs"`
}

// Head is one tagging head record in the registry.
type Head struct {
	Name     string            `yaml:"name"`
	Backbone string            `yaml:"backbone"`
	Sidecar  *EmbeddingSidecar `yaml:"embedding_sidecar,omitempty"`
}

// Registry is the full set of discovered heads.
type Registry struct {
	Heads []Head `yaml:"heads"`
}

// LoadRegistry reads and parses the registry YAML at path.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nomerr.Wrapf(err, nomerr.CodeModelsRegistryLoadFailure, "reading model registry %s", path)
	}

	var reg Registry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, nomerr.Wrapf(err, nomerr.CodeModelsRegistryParseInvalid, "parsing model registry %s", path)
	}
	return &reg, nil
}

// HeadsFor returns every head associated with the given backbone.
func (r *Registry) HeadsFor(backboneID string) []Head {
	var out []Head
	for _, h := range r.Heads {
		if h.Backbone == backboneID {
			out = append(out, h)
		}
	}
	return out
}
