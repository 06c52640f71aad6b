// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/birkland/deposit-services/cmd/deposit/cli"
	"github.com/birkland/deposit-services/status"
)

type statusParams struct {
	repositories string
	repository   string
	timeout      time.Duration
	outputJSON   bool
}

// statusResult is the JSON shape emitted with --json. Status is
// present only when a repository mapping was applied.
type statusResult struct {
	Document string `json:"document"`
	State    string `json:"state"`
	Status   string `json:"status,omitempty"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Resolve the deposit state in a SWORD statement",
		Usage:   "deposit status [flags] <statement-url-or-file>",
		Description: `Parse a SWORD statement document and report the deposit state it
advertises. The statement is fetched over HTTP(S) when the argument
is a URL and read from disk otherwise.

With --repository, the state is additionally mapped to that
repository's domain status (submitted, accepted, or rejected) using
the mapping table in the --repositories file.`,
		Examples: []cli.Example{
			{
				Description: "Report the raw deposit state",
				Command:     "deposit status https://repo.example.edu/statement/42",
			},
			{
				Description: "Map the state through a repository's status table",
				Command:     "deposit status statement.xml --repository jscholarship --repositories repositories.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flagSet.StringVar(&params.repositories, "repositories", repositoriesPathDefault(), "path to the repository definitions file")
			flagSet.StringVar(&params.repository, "repository", "", "repository key whose mapping translates the state to a status")
			flagSet.DurationVar(&params.timeout, "timeout", 30*time.Second, "HTTP fetch timeout")
			flagSet.BoolVar(&params.outputJSON, "json", false, "print the result as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one statement URL or file, got %d arguments\n\nusage: deposit status [flags] <statement-url-or-file>", len(args))
			}
			location := args[0]

			parser := &status.Parser{
				Fetch:  status.LocationFetch(&http.Client{Timeout: params.timeout}),
				Logger: logger,
			}
			state, err := parser.Parse(ctx, location)
			if err != nil {
				return err
			}

			result := statusResult{Document: location, State: state.String()}
			if params.repository != "" {
				registry, err := loadRegistry(params.repositories)
				if err != nil {
					return err
				}
				mappings, err := registry.StatusMappings()
				if err != nil {
					return err
				}
				mapped, err := status.NewMapper(mappings).Map(params.repository, state)
				if err != nil {
					return err
				}
				result.Status = string(mapped)
			}

			if params.outputJSON {
				return cli.WriteJSON(result)
			}
			fmt.Printf("state:  %s\n", result.State)
			if result.Status != "" {
				fmt.Printf("status: %s\n", result.Status)
			}
			return nil
		},
	}
}
