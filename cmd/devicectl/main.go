// Command devicectl is the runtime's process entry point: it loads a
// provider configuration file, starts every provider session and the
// state-cache polling loop, and optionally drops into an interactive
// operator console until it receives a shutdown signal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latticeworks/devicert/cmd/devicectl/interactive"
	"github.com/latticeworks/devicert/pkg/log"
	"github.com/latticeworks/devicert/pkg/runtime"
)

var (
	configPath      string
	logLevel        string
	protocolLogFile string
	runInteractive  bool
)

func main() {
	root := &cobra.Command{
		Use:   "devicectl",
		Short: "Run the device-control runtime",
		RunE:  run,
	}

	root.Flags().StringVar(&configPath, "config", "", "path to the runtime configuration file (required)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.Flags().StringVar(&protocolLogFile, "protocol-log", "", "file path for provider protocol event logging (CBOR format)")
	root.Flags().BoolVar(&runInteractive, "interactive", false, "drop into an interactive operator console after startup")
	_ = root.MarkFlagRequired("config")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(logLevel)}))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	var protoLog log.Logger = log.NoopLogger{}
	if protocolLogFile != "" {
		fileLogger, err := log.NewFileLogger(protocolLogFile)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fileLogger.Close()
		protoLog = fileLogger
	}

	rt := runtime.New(cfg, logger, protoLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Start(ctx); err != nil {
		return fmt.Errorf("start runtime: %w", err)
	}
	logger.Info("runtime started", "providers", len(cfg.Providers))

	if runInteractive {
		console, err := interactive.New(rt)
		if err != nil {
			return fmt.Errorf("create interactive console: %w", err)
		}
		defer console.Close()
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := rt.Shutdown(); err != nil {
		logger.Error("shutdown completed with errors", "error", err)
	}
	logger.Info("goodbye")
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
