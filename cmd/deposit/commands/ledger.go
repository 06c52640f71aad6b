// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/birkland/deposit-services/cmd/deposit/cli"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/ledger"
	"github.com/birkland/deposit-services/lib/config"
)

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:    "ledger",
		Summary: "Query the local deposit ledger",
		Description: `Query the deposit ledger a worker writes: one record per assembled
and sent package, updated as the repository's statement advances.

The ledger file defaults to the worker's default workspace; point
--db elsewhere or set DEPOSIT_LEDGER_PATH when the worker runs with
a custom workspace.`,
		Subcommands: []*cli.Command{
			ledgerListCommand(),
			ledgerShowCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List every recorded deposit",
				Command:     "deposit ledger list",
			},
			{
				Description: "List deposits for one repository still in flight",
				Command:     "deposit ledger list --repository jscholarship --status submitted",
			},
			{
				Description: "Show one deposit record in full",
				Command:     "deposit ledger show dep-9f2c41d8",
			},
		},
	}
}

// ledgerPathDefault is the default for --db flags: the
// DEPOSIT_LEDGER_PATH environment variable when set, otherwise the
// ledger path under the default workspace.
func ledgerPathDefault() string {
	if path := os.Getenv("DEPOSIT_LEDGER_PATH"); path != "" {
		return path
	}
	return config.Default().Ledger.Path
}

type ledgerListParams struct {
	db         string
	repository string
	status     string
	limit      int
	outputJSON bool
}

func ledgerListCommand() *cli.Command {
	var params ledgerListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List recorded deposits",
		Usage:   "deposit ledger list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.StringVar(&params.db, "db", ledgerPathDefault(), "path to the ledger database")
			flagSet.StringVar(&params.repository, "repository", "", "only deposits for this repository key")
			flagSet.StringVar(&params.status, "status", "", "only deposits with this status (submitted, accepted, rejected)")
			flagSet.IntVar(&params.limit, "limit", 0, "maximum records to return (0 = all)")
			flagSet.BoolVar(&params.outputJSON, "json", false, "print the records as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments %v\n\nusage: deposit ledger list [flags]", args)
			}

			filter := ledger.Filter{Repository: params.repository, Limit: params.limit}
			if params.status != "" {
				parsed, err := deposit.ParseStatus(params.status)
				if err != nil {
					return err
				}
				filter.Status = parsed
			}

			book, err := ledger.Open(ledger.Config{Path: params.db, PoolSize: 1, Logger: logger})
			if err != nil {
				return err
			}
			defer book.Close()

			deposits, err := book.List(ctx, filter)
			if err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(deposits)
			}
			if len(deposits) == 0 {
				fmt.Println("No deposits recorded.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "ID\tSUBMISSION\tREPOSITORY\tSTATUS\tSIZE\tUPDATED\n")
			for _, record := range deposits {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
					record.ID,
					record.SubmissionID,
					record.Repository,
					record.Status,
					formatSize(record.Size),
					record.UpdatedAt.UTC().Format(time.RFC3339),
				)
			}
			return writer.Flush()
		},
	}
}

type ledgerShowParams struct {
	db string
}

func ledgerShowCommand() *cli.Command {
	var params ledgerShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one deposit record in full",
		Usage:   "deposit ledger show [flags] <deposit-id>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flagSet.StringVar(&params.db, "db", ledgerPathDefault(), "path to the ledger database")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one deposit id, got %d arguments\n\nusage: deposit ledger show [flags] <deposit-id>", len(args))
			}

			book, err := ledger.Open(ledger.Config{Path: params.db, PoolSize: 1, Logger: logger})
			if err != nil {
				return err
			}
			defer book.Close()

			record, err := book.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return cli.WriteJSON(record)
		},
	}
}
