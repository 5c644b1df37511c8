package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"splice/internal/api"
	"splice/internal/history"
	"splice/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			pingCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			status, daemonErr := ctx.apiClient().Status(pingCtx)
			cancel()

			if daemonErr != nil {
				status = localStatus(cmd.Context(), ctx)
			}

			if asJSON {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			renderDaemonSection(stdout, status, daemonErr, colorize)
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, dep := range status.Dependencies {
				fmt.Fprintln(stdout, dependencyLine(dep, colorize))
			}
			fmt.Fprintln(stdout)

			if daemonErr != nil {
				for _, line := range renderSectionHeader("System Checks", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, check := range preflight.RunAll(cfg) {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Job History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildJobCountRows(status.JobCounts)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Status", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

// localStatus assembles what can be known without a running daemon.
func localStatus(ctx context.Context, cmdCtx *commandContext) api.DaemonStatus {
	status := api.DaemonStatus{}
	cfg := cmdCtx.configValue()
	if cfg == nil {
		return status
	}

	status.WorkspaceDir = cfg.Paths.WorkspaceDir
	status.DatabasePath = cfg.Paths.DatabasePath

	for _, dep := range preflight.CheckSystemDeps(ctx, cfg) {
		status.Dependencies = append(status.Dependencies, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}

	journal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		return status
	}
	defer journal.Close()
	if counts, err := journal.Stats(ctx); err == nil {
		status.JobCounts = counts
	}
	return status
}

func renderDaemonSection(stdout io.Writer, status api.DaemonStatus, daemonErr error, colorize bool) {
	if daemonErr != nil {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not reachable; showing local status", colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
		fmt.Fprintln(stdout, renderStatusLine("In-flight jobs", statusInfo,
			fmt.Sprintf("%d (%d bytes staged)", status.ActiveWorkspaces, status.WorkspaceBytes), colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Workspace", statusInfo, status.WorkspaceDir, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
}

func dependencyLine(dep api.DependencyStatus, colorize bool) string {
	if dep.Available {
		message := "Ready"
		if dep.Detail != "" {
			message = fmt.Sprintf("Ready (%s)", dep.Detail)
		}
		return renderStatusLine(dep.Name, statusOK, message, colorize)
	}
	detail := dep.Detail
	if detail == "" {
		detail = "not available"
	}
	kind := statusError
	if dep.Optional {
		kind = statusWarn
	}
	return renderStatusLine(dep.Name, kind, detail, colorize)
}

func buildJobCountRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key, count := range counts {
		if count == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{statusLabel(key), strconv.Itoa(counts[key])})
	}
	return rows
}
