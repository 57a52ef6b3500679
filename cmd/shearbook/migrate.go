// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/shearbook/shearbook/internal/config"
	"github.com/shearbook/shearbook/internal/store"
)

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	var (
		down  bool
		steps int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run pending database migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, down, steps)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations (destructive)")
	cmd.Flags().IntVar(&steps, "steps", 0, "apply n migrations (negative = down)")

	return cmd
}

func runMigrate(cmd *cobra.Command, down bool, steps int) error {
	databaseURL, err := config.LookupDatabaseURL()
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			cmd.PrintErrln("migrator close error:", closeErr)
		}
	}()

	switch {
	case down:
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return err
		}
	case steps != 0:
		cmd.Printf("Applying %d migration step(s)...\n", steps)
		if err := migrator.Steps(steps); err != nil {
			return err
		}
	default:
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Migrations completed (version %d, dirty=%v)\n", version, dirty)
	return nil
}
