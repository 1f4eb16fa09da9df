package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gitlab-utils/jobs-logs-downloader/internal/config"
	"github.com/gitlab-utils/jobs-logs-downloader/internal/fetcher"
	"github.com/gitlab-utils/jobs-logs-downloader/internal/fileio"
	"github.com/gitlab-utils/jobs-logs-downloader/internal/gitlab"
	"github.com/gitlab-utils/jobs-logs-downloader/pkg/log"
)

// This variable is set during build time via ldflags.
var version = "dev"

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gitlab-jobs-logs-downloader",
		Short:        "Download the execution logs of every job of a GitLab pipeline.",
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("gitlab-jobs-logs-downloader %s\n", version)
			return nil
		},
	}
}

func run(cmd *cobra.Command, args []string) error {
	// bootstrap logger until the configuration is validated
	logger := log.InitLog(zap.NewAtomicLevelAt(zapcore.InfoLevel), time.UTC)
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("reading configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		zap.S().Fatalf("invalid configuration: %v", err)
	}

	logger = log.InitLog(cfg.Level(), cfg.Location())
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	zap.S().Infof("starting gitlab jobs logs downloader %s", version)
	zap.S().Infof("configuration: %s", cfg)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := gitlab.NewClient(cfg.APIURL, cfg.APIToken, cfg.ProjectID, cfg.PipelineID)
	f := fetcher.New(cfg, client, fileio.NewWriter())
	if err := f.Run(ctx); err != nil {
		zap.S().Fatalf("downloading pipeline job logs: %v", err)
	}

	zap.S().Info("done")
	return nil
}
