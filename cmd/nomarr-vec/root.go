// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xiaden/nomarr-sub002/internal/config"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// NewRootCmd creates the root nomarr-vec command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nomarr-vec",
		Short:         "nomarr-vec — embedding vector lifecycle service",
		Long:          "nomarr-vec manages the hot/cold embedding vector stores of the nomarr music auto-tagger: ingestion, promotion, index maintenance, and similarity search.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")

	root.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newPromoteCmd(),
		newStatsCmd(),
		newSearchCmd(),
		newDeleteCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nomerr.Errorf(nomerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover nomarr.yaml from standard locations. No config
		// file is fine — defaults and env vars still apply. Parse or
		// permission errors must surface.
		v.SetConfigName("nomarr")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/nomarr")
		v.AddConfigPath("/etc/nomarr")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nomerr.Errorf(nomerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("storage.data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return nomerr.Errorf(nomerr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}

	return nil
}
