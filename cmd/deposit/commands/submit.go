// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/birkland/deposit-services/cmd/deposit/cli"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/config"
	"github.com/birkland/deposit-services/messaging"
)

type submitParams struct {
	queueURL   string
	repository string
}

// queueURLDefault is the default for --queue flags: the
// DEPOSIT_QUEUE_URL environment variable when set, otherwise the
// worker's default queue URL.
func queueURLDefault() string {
	if url := os.Getenv("DEPOSIT_QUEUE_URL"); url != "" {
		return url
	}
	return config.Default().Queue.URL
}

func submitCommand() *cli.Command {
	var params submitParams

	return &cli.Command{
		Name:    "submit",
		Summary: "Queue a submission directory for deposit",
		Usage:   "deposit submit [flags] <submission-dir>",
		Description: `Publish a submission request to the worker queue. The directory is
loaded the same way deposit package loads it: a submission.json
descriptor plus content files.

The request carries file paths, not file bytes, so the directory
must sit on storage the workers can read.`,
		Examples: []cli.Example{
			{
				Description: "Queue a submission for the jscholarship repository",
				Command:     "deposit submit ./submission-042 --repository jscholarship",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("submit", pflag.ContinueOnError)
			flagSet.StringVar(&params.queueURL, "queue", queueURLDefault(), "queue server URL")
			flagSet.StringVar(&params.repository, "repository", "", "repository key to deposit into (required)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one submission directory, got %d arguments\n\nusage: deposit submit [flags] <submission-dir>", len(args))
			}
			if params.repository == "" {
				return fmt.Errorf("--repository is required")
			}

			submission, err := deposit.LoadDir(args[0])
			if err != nil {
				return err
			}
			absDir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			request := &messaging.SubmissionRequest{
				SubmissionID: submission.ID,
				Repository:   params.repository,
				Metadata:     submission.Metadata,
			}
			for _, file := range submission.Files {
				request.Files = append(request.Files, messaging.FileRef{
					Name: file.Name,
					Path: filepath.Join(absDir, filepath.FromSlash(file.Name)),
					Role: string(file.Role),
				})
			}

			queue, err := messaging.Connect(messaging.Config{
				URL:    params.queueURL,
				Name:   "deposit-cli",
				Logger: logger,
			})
			if err != nil {
				return err
			}
			defer queue.Drain()

			if err := queue.PublishSubmission(ctx, request); err != nil {
				return err
			}
			fmt.Printf("queued %s for %s (%d files)\n", submission.ID, params.repository, len(request.Files))
			return nil
		},
	}
}
