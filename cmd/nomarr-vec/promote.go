// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPromoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <backbone>",
		Short: "Drain hot vectors to cold and rebuild the similarity index",
		Long:  "Run one promotion for a backbone: resolve embedding dimensions, drain the hot collection into cold, verify, and rebuild the cold similarity index. Safe to re-run after any failure.",
		Args:  cobra.ExactArgs(1),
		RunE:  runPromote,
	}

	cmd.Flags().Int("nlists", 0, "index partitioning override (0 = computed from collection size)")

	return cmd
}

func runPromote(cmd *cobra.Command, args []string) error {
	backbone := args[0]
	nlists, _ := cmd.Flags().GetInt("nlists")

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.maintenance.PromoteAndRebuild(cmd.Context(), backbone, nlists); err != nil {
		return err
	}

	stats, err := a.maintenance.GetHotColdStats(cmd.Context(), backbone)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "promoted %s: hot=%d cold=%d index=%t\n",
		backbone, stats.HotCount, stats.ColdCount, stats.IndexExists)
	return nil
}
