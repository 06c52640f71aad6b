// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the deposit CLI command tree. Each
// top-level command lives in its own file in this package; the tree
// is small enough that splitting into per-command packages would buy
// nothing.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/birkland/deposit-services/cmd/deposit/cli"
	"github.com/birkland/deposit-services/lib/repodef"
	"github.com/birkland/deposit-services/lib/version"
)

// Root builds and returns the complete deposit CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "deposit",
		Description: `Deposit services: package submissions and track deposits.

Assemble submission directories into archival packages, inspect
repository definitions, resolve deposit state from SWORD statement
documents, and query the local deposit ledger.`,
		Subcommands: []*cli.Command{
			packageCommand(),
			submitCommand(),
			statusCommand(),
			repositoriesCommand(),
			ledgerCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("deposit %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Assemble a submission directory for a configured repository",
				Command:     "deposit package ./submission-042 --repository jscholarship --repositories repositories.json",
			},
			{
				Description: "Queue a submission for a worker to deposit",
				Command:     "deposit submit ./submission-042 --repository jscholarship",
			},
			{
				Description: "Resolve the deposit state behind a statement URL",
				Command:     "deposit status https://repo.example.edu/statement/42",
			},
			{
				Description: "List configured repositories",
				Command:     "deposit repositories list --repositories repositories.json",
			},
			{
				Description: "List deposits still awaiting a terminal status",
				Command:     "deposit ledger list --status submitted",
			},
		},
	}
}

// repositoriesPathDefault is the default for --repositories flags:
// the DEPOSIT_REPOSITORIES environment variable, or empty when
// unset (the flag is then required by commands that resolve a
// repository key).
func repositoriesPathDefault() string {
	return os.Getenv("DEPOSIT_REPOSITORIES")
}

// loadRegistry reads the repository definitions at path, guiding the
// user to the flag or environment variable when no path was given.
func loadRegistry(path string) (*repodef.Registry, error) {
	if path == "" {
		return nil, fmt.Errorf("no repository definitions: pass --repositories or set DEPOSIT_REPOSITORIES")
	}
	return repodef.ReadFile(path)
}

// formatSize renders a byte count for table output.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
