package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fbdash/fbdash/config"
	"github.com/fbdash/fbdash/controller"

	// built-in widget modules register themselves
	_ "github.com/fbdash/fbdash/widgets/clock"
	_ "github.com/fbdash/fbdash/widgets/stocks"
	_ "github.com/fbdash/fbdash/widgets/weather"
)

var (
	flagConfig  string
	flagLogFile string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          `fbdash`,
	Short:        `fbdash drives a widget dashboard on a framebuffer display`,
	Long:         `fbdash drives a widget dashboard on a framebuffer display`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, `config`, ``, `configuration file path`)
	rootCmd.PersistentFlags().StringVar(&flagLogFile, `log`, ``, `log file path`)
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, `verbose`, false, `enable verbose logging`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	logger, closeLog := setupLogger()
	defer closeLog()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		logger.Error(`loading config failed`, `cause`, err)
		return err
	}

	// all termination signals trigger the same graceful shutdown:
	// the current cycle finishes and the device is released
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer stop()

	if err := controller.New(cfg, logger).Run(ctx); err != nil {
		logger.Error(`display controller failed`, `cause`, err)
		return err
	}
	return nil
}

func setupLogger() (*slog.Logger, func()) {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stdout
	closeLog := func() {}
	if len(flagLogFile) > 0 {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.New(slog.NewTextHandler(os.Stdout, nil)).
				Warn(`log file unavailable`, `path`, flagLogFile, `cause`, err)
		} else {
			w = io.MultiWriter(os.Stdout, f)
			closeLog = func() { f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeLog
}
