package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"reelpress/internal/config"
	"reelpress/internal/domain/discovery"
	"reelpress/internal/logging"
	"reelpress/internal/pipeline"
	"reelpress/internal/ports"
	"reelpress/internal/ports/adapters/editor"
	"reelpress/internal/ports/adapters/ffmpeg"
	"reelpress/internal/scheduler"
)

func run(cmd *cobra.Command, inputDir string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	filterAudio, _ := cmd.Flags().GetBool("filter-audio")
	skipNorm, _ := cmd.Flags().GetBool("skip-normalization")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	parallel, _ := cmd.Flags().GetBool("parallel")
	noEdit, _ := cmd.Flags().GetBool("no-edit")
	logFormat, _ := cmd.Flags().GetString("log-format")
	cfgPath, _ := cmd.Flags().GetString("config")

	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if logFormat == "" {
		logFormat = cfg.LogFormat
	}
	logger, err := logging.New(logging.Options{Level: level, Format: logFormat})
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		DryRun:            dryRun,
		FilterAudio:       filterAudio,
		SkipNormalization: skipNorm,
		EditConfig:        !noEdit && !dryRun,
		SeedPreviewLength: cfg.PreviewLength,
	}
	if cmd.Flags().Changed("preview") {
		opts.ForcePreview = true
		if length, _ := cmd.Flags().GetFloat64("preview"); length > 0 {
			opts.PreviewLength = length
		}
	}
	parallel = parallel || cfg.Parallel
	if parallel {
		// The interactive editor cannot be shared across concurrent
		// groups.
		opts.EditConfig = false
	}

	absDir, err := filepath.Abs(inputDir)
	if err != nil {
		return err
	}

	media := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	if err := media.Preflight(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("scanning for raw clips", "dir", absDir, "dry_run", dryRun)
	groups, err := discovery.Scan(logger, absDir, dryRun)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		logger.Info("no camera clips found, nothing to do", "dir", absDir)
		return nil
	}
	logger.Info("groups discovered", "count", len(groups))

	var configEditor ports.ConfigEditor = editor.Nop{}
	if opts.EditConfig {
		configEditor = editor.New(cfg.Editor)
	}

	runner := pipeline.New(pipeline.Deps{
		Prober:  media,
		Encoder: media,
		Editor:  configEditor,
		Confirm: newTerminalConfirmer(cmd.OutOrStdout()),
		Logger:  logger,
	}, opts)

	outcome := scheduler.Run(ctx, logger, groups, parallel, runner.Run)
	fmt.Fprintln(cmd.OutOrStdout(), summaryTable(outcome))

	if !outcome.OK() {
		return fmt.Errorf("%d of %d groups failed", len(outcome.Failures), len(groups))
	}
	return nil
}
