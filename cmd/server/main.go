package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/authgate/internal/server"
	"github.com/iudanet/authgate/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Флаг -version обрабатывается до разбора конфигурации
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			os.Exit(0)
		}
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	app, err := server.NewApp(ctx, cfg, logger, Version)
	if err != nil {
		logger.Error("failed to init application", slog.Any("error", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("AuthGate Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
