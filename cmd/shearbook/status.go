// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shearbook/shearbook/internal/config"
	"github.com/shearbook/shearbook/internal/store"
)

const statusTimeout = 5 * time.Second

// serviceStatus holds the reported state of the service's dependencies.
type serviceStatus struct {
	Database         string `json:"database"`
	MigrationVersion uint   `json:"migration_version"`
	MigrationDirty   bool   `json:"migration_dirty"`
	Error            string `json:"error,omitempty"`
}

// newStatusCmd creates the status subcommand.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database and migration status",
		Long:  `Check PostgreSQL connectivity and report the current migration version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	status := queryStatus(cmd.Context())

	if jsonOutput {
		encoded, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(encoded))
		return nil
	}

	cmd.Println(formatStatusTable(status))
	return nil
}

func queryStatus(ctx context.Context) serviceStatus {
	status := serviceStatus{Database: "unreachable"}

	databaseURL, err := config.LookupDatabaseURL()
	if err != nil {
		status.Error = err.Error()
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer pool.Close()
	status.Database = "ok"

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.MigrationVersion = version
	status.MigrationDirty = dirty

	return status
}

func formatStatusTable(status serviceStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "DATABASE\tMIGRATION\tDIRTY\n")
	fmt.Fprintf(w, "%s\t%d\t%v\n", status.Database, status.MigrationVersion, status.MigrationDirty)
	if status.Error != "" {
		fmt.Fprintf(w, "\nerror: %s\n", status.Error)
	}
	_ = w.Flush()

	return buf.String()
}
