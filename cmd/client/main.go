package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/iudanet/authgate/internal/client/api"
	"github.com/iudanet/authgate/internal/client/auth"
	"github.com/iudanet/authgate/internal/client/cli"
	"github.com/iudanet/authgate/internal/client/iocli"
	"github.com/iudanet/authgate/internal/client/storage/boltdb"
	"github.com/iudanet/authgate/internal/client/transport"
	"github.com/iudanet/authgate/internal/client/userstore"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "authgate-client.db", "Path to local database")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := context.Background()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// HTTP клиент с автоматическим обновлением токенов
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport.New(nil, *serverURL, boltStorage, logger),
	}

	apiClient := api.NewClient(*serverURL, httpClient)
	users := userstore.New()
	authService := auth.NewService(apiClient, boltStorage, users, logger)

	c := cli.New(iocli.NewStdio(), authService, users)
	c.Run(ctx, command)
}

func printVersion() {
	fmt.Printf("AuthGate Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
