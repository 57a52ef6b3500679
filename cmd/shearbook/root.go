// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Shearbook CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shearbook",
		Short: "Shearbook - salon booking platform auth service",
		Long: `Shearbook is the authentication backend of the Shearbook salon
booking platform: account signup and login, stateless JWT session
tokens, and token refresh.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSecretCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
