// Package main is the entry point for the lyric fetcher web server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lyricfetch/internal/config"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/server"
	"lyricfetch/internal/telemetry"
	"lyricfetch/internal/version"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		if os.Getenv("DEBUG") == "true" {
			fmt.Fprintf(os.Stderr, "No .env file found or error loading it: %v\n", err)
		}
	}

	// Handle version flag first, before loading configuration
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version" || os.Args[1] == "version") {
		versionInfo := version.Get()
		fmt.Printf("lyricfetch-server version %s\n", versionInfo.Version)
		fmt.Printf("  commit: %s\n", versionInfo.Commit)
		fmt.Printf("  built: %s\n", versionInfo.BuildDate)
		fmt.Printf("  go: %s\n", versionInfo.GoVersion)
		fmt.Printf("  platform: %s\n", versionInfo.Platform)
		os.Exit(0)
	}

	bindAddr := flag.String("b", "", "bind address (overrides configuration)")
	port := flag.Int("p", 0, "listen port (overrides configuration)")
	verbose := flag.Bool("v", false, "info logging")
	veryVerbose := flag.Bool("vv", false, "debug logging")
	debug := flag.Bool("d", false, "debug mode (implies -vv)")
	flag.Parse()

	switch {
	case *debug, *veryVerbose:
		logging.SetVerbosity(2)
	case *verbose:
		logging.SetVerbosity(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *bindAddr != "" {
		cfg.BindAddr = *bindAddr
	}
	if *port != 0 {
		cfg.Port = *port
	}
	// Configured verbosity applies unless a flag already set one
	if cfg.Verbosity > 0 && logging.Verbosity() == 0 {
		logging.SetVerbosity(cfg.Verbosity)
	}

	if err := logging.Initialize(cfg.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize file logging: %v\n", err)
	} else {
		defer logging.Close()
	}

	ctx := context.Background()
	shutdown, err := telemetry.InitializeFromEnv(ctx)
	if err != nil {
		logging.Warning("Failed to initialize telemetry: %v", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				logging.Warning("Error shutting down telemetry: %v", err)
			}
		}()
	}

	logging.Info("Configuration: %s", cfg)

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	// Shut down cleanly on interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info("Received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
