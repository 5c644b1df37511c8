package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"splice/internal/config"
	"splice/internal/deps"
	"splice/internal/history"
	"splice/internal/logging"
	"splice/internal/media/ffmpeg"
	"splice/internal/media/ffprobe"
	"splice/internal/merge"
	"splice/internal/staging"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "merge FILE FILE [FILE...]",
		Short: "Concatenate video files locally without the daemon",
		Args:  cobra.MinimumNArgs(merge.MinInputFiles),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !deps.FFmpegAvailable(cfg) {
				return fmt.Errorf("merge tool %q is not available; install ffmpeg or set ffmpeg.binary", cfg.FFmpegBinary())
			}
			return runLocalMerge(cmd.Context(), cmd, cfg, args, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "merged.mp4", "Destination for the merged file")
	return cmd
}

func runLocalMerge(ctx context.Context, cmd *cobra.Command, cfg *config.Config, inputs []string, outputPath string) error {
	logger := logging.NewNop()

	journal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		return fmt.Errorf("open job journal: %w", err)
	}
	defer journal.Close()

	area, err := staging.NewArea(cfg.Paths.WorkspaceDir, logger)
	if err != nil {
		return fmt.Errorf("init staging area: %w", err)
	}

	merger, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.FFmpeg.Preset, cfg.MergeTimeout(), logger)
	if err != nil {
		return fmt.Errorf("init merge client: %w", err)
	}

	probe := func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}

	pipeline, err := merge.NewPipeline(area, merger, logger,
		merge.WithJournal(journal),
		merge.WithProber(probe),
	)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	uploads := make([]merge.Upload, 0, len(inputs))
	for _, input := range inputs {
		file, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		uploads = append(uploads, merge.Upload{
			Name: filepath.Base(input),
			Data: file,
		})
	}

	result, err := pipeline.Run(ctx, uploads)
	if err != nil {
		return err
	}

	copyErr := copyOutput(result.OutputPath, outputPath)
	result.Finish(copyErr)
	if copyErr != nil {
		return fmt.Errorf("write output: %w", copyErr)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merged %d files into %s (%d bytes", len(inputs), outputPath, result.OutputBytes)
	if result.OutputDurationSeconds > 0 {
		fmt.Fprintf(out, ", %.1fs", result.OutputDurationSeconds)
	}
	fmt.Fprintln(out, ")")
	fmt.Fprintf(out, "Job ID: %s\n", result.Job.ID)
	return nil
}

func copyOutput(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
