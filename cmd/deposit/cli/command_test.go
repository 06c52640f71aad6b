// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "deposit",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "status",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "status"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"status"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "status" {
		t.Errorf("dispatched to %q, want %q", called, "status")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "deposit",
		Subcommands: []*Command{
			{
				Name: "ledger",
				Subcommands: []*Command{
					{
						Name: "show",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "ledger show"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"ledger", "show", "dep-0001"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "ledger show" {
		t.Errorf("dispatched to %q, want %q", called, "ledger show")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "dep-0001" {
		t.Errorf("args = %v, want [dep-0001]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var repository string
	var target string

	command := &Command{
		Name: "package",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("package", pflag.ContinueOnError)
			flagSet.StringVar(&repository, "repository", "", "repository key")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--repository", "jscholarship", "./submission"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if repository != "jscholarship" {
		t.Errorf("repository = %q, want %q", repository, "jscholarship")
	}
	if target != "./submission" {
		t.Errorf("target = %q, want %q", target, "./submission")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "package",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("package", pflag.ContinueOnError)
			flagSet.Bool("verbose", false, "verbose output")
			flagSet.String("repository", "", "repository key")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--repositry", "x"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --repository") {
		t.Errorf("error = %q, want suggestion for '--repository'", errStr)
	}
	if !strings.Contains(errStr, "repositry") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "package",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("package", pflag.ContinueOnError)
			flagSet.Bool("verbose", false, "verbose output")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "deposit",
		Subcommands: []*Command{
			{Name: "package"},
			{Name: "status"},
			{Name: "ledger"},
		},
	}

	err := root.Execute(context.Background(), []string{"statsu"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"status\"") {
		t.Errorf("error = %q, want suggestion for 'status'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "deposit",
		Subcommands: []*Command{
			{Name: "package"},
			{Name: "status"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "deposit",
				Summary: "Deposit packaging and status tools",
				Subcommands: []*Command{
					{Name: "package", Summary: "Assemble a package"},
				},
			}

			err := root.Execute(context.Background(), []string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "deposit",
		Subcommands: []*Command{
			{Name: "package", Summary: "Assemble a package"},
		},
	}

	err := root.Execute(context.Background(), []string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "deposit",
		Description: "Deposit packaging and status tools.",
		Subcommands: []*Command{
			{Name: "package", Summary: "Assemble a submission into a package"},
			{Name: "status", Summary: "Resolve deposit status from a statement"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Package a submission directory",
				Command:     "deposit package ./submission --repository jscholarship",
			},
			{
				Description: "Resolve a deposit statement",
				Command:     "deposit status https://repo.example.edu/statement/42",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Deposit packaging and status tools.",
		"Usage:",
		"deposit <command> [flags]",
		"Commands:",
		"package",
		"Assemble a submission into a package",
		"status",
		"Resolve deposit status from a statement",
		"Examples:",
		"deposit package ./submission",
		"deposit status https://repo.example.edu/statement/42",
		"Run 'deposit <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "package",
		Summary: "Assemble a submission into a package",
		Usage:   "deposit package <dir> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("package", pflag.ContinueOnError)
			flagSet.String("repository", "", "repository key from the definitions file")
			flagSet.Bool("json", false, "output as JSON")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"deposit package <dir> [flags]",
		"Flags:",
		"repository",
		"json",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "deposit"}
	ledger := &Command{Name: "ledger", parent: root}
	show := &Command{Name: "show", parent: ledger}

	if got := root.fullName(); got != "deposit" {
		t.Errorf("root.fullName() = %q, want %q", got, "deposit")
	}
	if got := ledger.fullName(); got != "deposit ledger" {
		t.Errorf("ledger.fullName() = %q, want %q", got, "deposit ledger")
	}
	if got := show.fullName(); got != "deposit ledger show" {
		t.Errorf("show.fullName() = %q, want %q", got, "deposit ledger show")
	}
}
