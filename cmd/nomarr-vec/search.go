// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <backbone>",
		Short: "Similarity search against a backbone's cold collection",
		Long:  "Run a nearest-neighbor query against the cold similarity index. Fails when no index exists — run promote first.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().String("vector", "", "comma-separated query vector (required)")
	cmd.Flags().Int("limit", 10, "maximum number of results")
	cmd.Flags().Float64("min-score", 0.0, "drop hits scoring below this similarity")
	_ = cmd.MarkFlagRequired("vector")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	backbone := args[0]
	rawVector, _ := cmd.Flags().GetString("vector")
	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetFloat64("min-score")

	query, err := parseVector(rawVector)
	if err != nil {
		return err
	}

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	hits, err := a.search.SearchSimilarTracks(cmd.Context(), backbone, query, limit, minScore)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%.4f  %s\n", h.Score, h.Vector.FileID)
	}
	return nil
}
