// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/ledger"
	"github.com/birkland/deposit-services/lib/clock"
	"github.com/birkland/deposit-services/lib/config"
	"github.com/birkland/deposit-services/lib/repodef"
	"github.com/birkland/deposit-services/lib/version"
	"github.com/birkland/deposit-services/messaging"
	"github.com/birkland/deposit-services/status"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "",
		"path to the worker configuration file (default: $DEPOSIT_CONFIG)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("deposit-worker %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureWorkspace(); err != nil {
		return err
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := repodef.ReadFile(cfg.Repositories)
	if err != nil {
		return fmt.Errorf("loading repository definitions: %w", err)
	}
	// Resolve every mapping table now: a definitions file a worker
	// cannot serve should fail startup, not the first deposit.
	mappings, err := registry.StatusMappings()
	if err != nil {
		return fmt.Errorf("loading repository definitions: %w", err)
	}

	book, err := ledger.Open(ledger.Config{
		Path:     cfg.Ledger.Path,
		PoolSize: cfg.Ledger.PoolSize,
		Logger:   logger.With("component", "ledger"),
	})
	if err != nil {
		return err
	}
	defer book.Close()

	queue, err := messaging.Connect(messaging.Config{
		URL:    cfg.Queue.URL,
		Name:   cfg.Queue.Name,
		Logger: logger.With("component", "queue"),
	})
	if err != nil {
		return err
	}

	worker := &Worker{
		Assembler: &assembler.Assembler{Logger: logger.With("component", "assembler")},
		Registry:  registry,
		Ledger:    book,
		Events:    queue,
		Workspace: cfg.Workspace,
		Clock:     clock.Real(),
		Logger:    logger.With("component", "worker"),
	}
	if _, err := queue.SubscribeSubmissions(func(request *messaging.SubmissionRequest) error {
		return worker.HandleSubmission(ctx, request)
	}); err != nil {
		return err
	}

	poller := &Poller{
		Ledger: book,
		Parser: &status.Parser{
			Fetch:  status.LocationFetch(&http.Client{Timeout: cfg.StatusTimeout()}),
			Logger: logger.With("component", "poller"),
		},
		Mapper:   status.NewMapper(mappings),
		Events:   queue,
		Interval: cfg.StatusInterval(),
		Timeout:  cfg.StatusTimeout(),
		Clock:    clock.Real(),
		Logger:   logger.With("component", "poller"),
	}
	pollerDone := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(pollerDone)
	}()

	logger.Info("deposit worker running",
		"queue", cfg.Queue.URL,
		"repositories", registry.Keys(),
		"ledger", cfg.Ledger.Path,
		"workspace", cfg.Workspace,
		"status_interval", cfg.StatusInterval(),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	// Drain stops new deliveries and waits for the in-flight handler
	// before the ledger closes underneath it.
	if err := queue.Drain(); err != nil {
		logger.Error("draining queue connection", "error", err)
	}
	<-pollerDone
	return nil
}

// newLogger builds the worker's root logger from the configured
// level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
