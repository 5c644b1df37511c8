package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"splice/internal/api"
	"splice/internal/history"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent merge jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobSource(cmd.Context(), func(client *api.Client, journal *history.Store) error {
				var records []api.JobRecord
				if client != nil {
					fetched, err := client.Jobs(cmd.Context(), limit)
					if err != nil {
						return err
					}
					records = fetched
				} else {
					fetched, err := journal.List(cmd.Context(), limit)
					if err != nil {
						return err
					}
					records = api.FromRecords(fetched)
				}

				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: records})
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Status", "Files", "Output", "Duration", "Completed"},
					buildJobRows(records),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of jobs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	cmd.AddCommand(newJobsShowCommand(ctx))
	cmd.AddCommand(newJobsPruneCommand(ctx))
	return cmd
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete job history records older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			journal, err := history.Open(cfg.Paths.DatabasePath)
			if err != nil {
				return err
			}
			defer journal.Close()

			deleted, err := journal.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d job records\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age past which records are removed")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one merge job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withJobSource(cmd.Context(), func(client *api.Client, journal *history.Store) error {
				var record api.JobRecord
				if client != nil {
					fetched, err := client.Job(cmd.Context(), id)
					if err != nil {
						return err
					}
					record = fetched
				} else {
					fetched, err := journal.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					if fetched == nil {
						return fmt.Errorf("job %s not found", id)
					}
					record = api.FromRecord(*fetched)
				}

				if asJSON {
					return writeJSON(cmd, api.JobResponse{Job: record})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:       %s\n", record.ID)
				fmt.Fprintf(out, "Status:    %s\n", statusLabel(record.Status))
				fmt.Fprintf(out, "Files:     %d (%d bytes in)\n", record.InputCount, record.InputBytes)
				fmt.Fprintf(out, "Output:    %d bytes\n", record.OutputBytes)
				if record.OutputDurationSeconds > 0 {
					fmt.Fprintf(out, "Duration:  %.1fs\n", record.OutputDurationSeconds)
				}
				if record.CompletedAt != "" {
					fmt.Fprintf(out, "Completed: %s\n", record.CompletedAt)
				}
				if record.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:     %s\n", record.ErrorMessage)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func buildJobRows(records []api.JobRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		duration := ""
		if record.OutputDurationSeconds > 0 {
			duration = fmt.Sprintf("%.1fs", record.OutputDurationSeconds)
		}
		rows = append(rows, []string{
			record.ID,
			statusLabel(record.Status),
			strconv.Itoa(record.InputCount),
			fmt.Sprintf("%d B", record.OutputBytes),
			duration,
			record.CompletedAt,
		})
	}
	return rows
}

func statusLabel(status string) string {
	label := strings.ReplaceAll(strings.TrimSpace(status), "_", " ")
	if label == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(label)
}
