// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete all vectors for a file across every backbone",
		Long:  "Remove a file's vectors from the hot and cold collections of every known backbone, as when the file is removed from the library. Succeeds with a count of 0 when the file was never embedded.",
		RunE:  runDelete,
	}

	cmd.Flags().String("file-id", "", "owning audio file reference (required)")
	_ = cmd.MarkFlagRequired("file-id")

	return cmd
}

func runDelete(cmd *cobra.Command, _ []string) error {
	fileID, _ := cmd.Flags().GetString("file-id")

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	deleted, err := a.maintenance.DeleteVectorsByFileID(cmd.Context(), fileID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d vector(s) for %s\n", deleted, fileID)
	return nil
}
