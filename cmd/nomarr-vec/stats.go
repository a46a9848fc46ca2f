// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [backbone]",
		Short: "Show hot/cold collection statistics",
		Long:  "Report hot and cold collection sizes and index presence for one backbone, or for every known backbone when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()

	backbones := args
	if len(backbones) == 0 {
		backbones, err = a.vectors.Backbones(cmd.Context())
		if err != nil {
			return err
		}
		if len(backbones) == 0 {
			fmt.Fprintln(out, "no backbones known yet")
			return nil
		}
	}

	for _, b := range backbones {
		stats, err := a.maintenance.GetHotColdStats(cmd.Context(), b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: hot=%d cold=%d index=%t\n", b, stats.HotCount, stats.ColdCount, stats.IndexExists)
	}
	return nil
}
