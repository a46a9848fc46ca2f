// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaden/nomarr-sub002/internal/store"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <backbone>",
		Short: "Upsert a vector into a backbone's hot collection",
		Long:  "Write one embedding vector into the hot collection, the way the tagging worker does after pooling segment embeddings. Repeated ingests for the same file and model suite converge to a single record.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("file-id", "", "owning audio file reference (required)")
	cmd.Flags().String("suite-hash", "", "model suite hash that produced the vector (required)")
	cmd.Flags().String("vector", "", "comma-separated embedding components (required)")
	cmd.Flags().Int("segments", 0, "number of audio segments pooled into the embedding")
	_ = cmd.MarkFlagRequired("file-id")
	_ = cmd.MarkFlagRequired("suite-hash")
	_ = cmd.MarkFlagRequired("vector")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	backbone := args[0]
	fileID, _ := cmd.Flags().GetString("file-id")
	suiteHash, _ := cmd.Flags().GetString("suite-hash")
	rawVector, _ := cmd.Flags().GetString("vector")
	segments, _ := cmd.Flags().GetInt("segments")

	vec, err := parseVector(rawVector)
	if err != nil {
		return err
	}

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	rec := &store.TrackVector{
		FileID:         fileID,
		ModelSuiteHash: suiteHash,
		EmbedDim:       len(vec),
		Vector:         vec,
		NumSegments:    segments,
	}
	if err := a.vectors.UpsertHot(cmd.Context(), backbone, rec); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %s into hot %s (key %s)\n",
		fileID, backbone, store.VectorKey(fileID, suiteHash))
	return nil
}

// parseVector decodes a comma-separated float list.
func parseVector(raw string) ([]float32, error) {
	parts := strings.Split(raw, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, nomerr.Errorf(nomerr.CodeCLIInputInvalid, "invalid vector component %q: %w", p, err)
		}
		vec = append(vec, float32(f))
	}
	if len(vec) == 0 {
		return nil, nomerr.New(nomerr.CodeCLIInputInvalid, "vector must not be empty")
	}
	return vec, nil
}
