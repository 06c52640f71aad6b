// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/birkland/deposit-services/cmd/deposit/cli"
	"github.com/birkland/deposit-services/transport"
)

func repositoriesCommand() *cli.Command {
	return &cli.Command{
		Name:    "repositories",
		Summary: "Inspect repository definitions",
		Description: `Inspect the repository definitions file that drives packaging and
status mapping. list shows each repository's transport protocol and
packaging settings; validate resolves every definition and reports
what a worker would reject at startup.`,
		Subcommands: []*cli.Command{
			repositoriesListCommand(),
			repositoriesValidateCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List configured repositories",
				Command:     "deposit repositories list --repositories repositories.json",
			},
			{
				Description: "Validate a definitions file before deploying it",
				Command:     "deposit repositories validate repositories.json",
			},
		},
	}
}

type repositoriesListParams struct {
	repositories string
	outputJSON   bool
}

// repositoryListing is one row of the list output.
type repositoryListing struct {
	Key           string `json:"key"`
	Protocol      string `json:"protocol"`
	Specification string `json:"specification"`
	Archive       string `json:"archive"`
	Compression   string `json:"compression"`
}

func repositoriesListCommand() *cli.Command {
	var params repositoriesListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List configured repositories",
		Usage:   "deposit repositories list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.StringVar(&params.repositories, "repositories", repositoriesPathDefault(), "path to the repository definitions file")
			flagSet.BoolVar(&params.outputJSON, "json", false, "print the listing as JSON")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments %v\n\nusage: deposit repositories list [flags]", args)
			}
			registry, err := loadRegistry(params.repositories)
			if err != nil {
				return err
			}

			listings := make([]repositoryListing, 0, len(registry.Keys()))
			for _, key := range registry.Keys() {
				repository, err := registry.Repository(key)
				if err != nil {
					return err
				}
				listings = append(listings, repositoryListing{
					Key:           key,
					Protocol:      repository.TransportConfig.ProtocolBinding.Protocol,
					Specification: repository.Assembler.Specification,
					Archive:       repository.Assembler.Archive,
					Compression:   repository.Assembler.Compression,
				})
			}

			if params.outputJSON {
				return cli.WriteJSON(listings)
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "KEY\tPROTOCOL\tSPECIFICATION\tARCHIVE\tCOMPRESSION\n")
			for _, listing := range listings {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					listing.Key,
					listing.Protocol,
					listing.Specification,
					listing.Archive,
					listing.Compression,
				)
			}
			return writer.Flush()
		},
	}
}

type repositoriesValidateParams struct {
	repositories string
}

func repositoriesValidateCommand() *cli.Command {
	var params repositoriesValidateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Validate a repository definitions file",
		Usage:   "deposit repositories validate [flags] [path]",
		Description: `Resolve every repository definition the way a worker does at
startup: parse the file, resolve each repository's packaging
settings, and build each status mapping table. Problems are printed
one per line; any problem makes the command exit 1.

A protocol with no transport in this build is reported as a warning,
not a problem: the definitions file may serve deployments with other
transports linked in.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.StringVar(&params.repositories, "repositories", repositoriesPathDefault(), "path to the repository definitions file")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			path := params.repositories
			if len(args) == 1 {
				path = args[0]
			} else if len(args) > 1 {
				return fmt.Errorf("expected at most one path argument, got %d\n\nusage: deposit repositories validate [flags] [path]", len(args))
			}

			registry, err := loadRegistry(path)
			if err != nil {
				fmt.Println(err)
				return &cli.ExitError{Code: 1}
			}

			var problems []string
			for _, key := range registry.Keys() {
				repository, err := registry.Repository(key)
				if err != nil {
					problems = append(problems, err.Error())
					continue
				}
				if _, err := repository.AssemblerOptions(); err != nil {
					problems = append(problems, err.Error())
				}
				protocol := repository.TransportConfig.ProtocolBinding.Protocol
				if _, err := transport.Lookup(protocol); err != nil {
					fmt.Fprintf(os.Stderr, "warning: repository %s: %v (available: %s)\n",
						key, err, strings.Join(transport.Protocols(), ", "))
				}
			}
			if _, err := registry.StatusMappings(); err != nil {
				problems = append(problems, err.Error())
			}

			if len(problems) > 0 {
				for _, problem := range problems {
					fmt.Println(problem)
				}
				return &cli.ExitError{Code: 1}
			}

			fmt.Printf("%s: %d repositories OK\n", path, len(registry.Keys()))
			return nil
		},
	}
}
