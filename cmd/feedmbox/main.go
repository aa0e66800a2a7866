package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/EckhartOSB/feedmbox/internal/di"
	processorService "github.com/EckhartOSB/feedmbox/internal/modules/processor/service"
	subscriptionService "github.com/EckhartOSB/feedmbox/internal/modules/subscription/service"
	"github.com/EckhartOSB/feedmbox/internal/shared/config"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	setupLogging(cfg)

	// stdout carries the mbox stream and nothing else.
	injector, err := di.Setup(cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to set up services", "error", err)
		return 1
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var in io.Reader = os.Stdin
	if cfg.OPML != "-" {
		f, err := os.Open(cfg.OPML)
		if err != nil {
			slog.Error("cannot open subscription list", "path", cfg.OPML, "error", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	subscriptions := do.MustInvoke[*subscriptionService.Service](injector)
	feeds, err := subscriptions.Parse(in)
	if err != nil {
		slog.Error("cannot parse subscription list", "error", err)
		return 1
	}

	processor := do.MustInvoke[*processorService.Service](injector)
	if err := processor.Run(ctx, feeds); err != nil {
		if ctx.Err() != nil {
			slog.Warn("interrupted")
			return 0
		}
		slog.Error("run aborted", "error", err)
		return 1
	}
	return 0
}

// setupLogging sends text diagnostics to stderr, fanned out to a JSON
// file when one is configured. Verbosity widens the level.
func setupLogging(cfg *config.Config) {
	level := slog.LevelWarn
	switch {
	case cfg.Verbose >= 2:
		level = slog.LevelDebug
	case cfg.Verbose == 1:
		level = slog.LevelInfo
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot open log file:", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}
	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
}
