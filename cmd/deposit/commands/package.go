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

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/cmd/deposit/cli"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/checksum"
)

// packageParams holds the flag values for the package command.
type packageParams struct {
	repositories  string
	repository    string
	specification string
	archive       string
	compression   string
	checksums     []string
	out           string
	outputJSON    bool
}

// packageResult is the JSON shape emitted with --json.
type packageResult struct {
	Path     string             `json:"path"`
	Metadata assembler.Metadata `json:"metadata"`
}

func packageCommand() *cli.Command {
	var params packageParams

	return &cli.Command{
		Name:    "package",
		Summary: "Assemble a submission directory into a package file",
		Usage:   "deposit package [flags] <submission-dir>",
		Description: `Assemble a submission directory into a single package file.

The directory must contain a submission.json descriptor ({id,
metadata, roles}); every other regular file below it becomes package
content, in lexical path order. The package lands in --out as
<submission-id> plus the extension for the chosen layers.

With --repository, packaging settings come from that repository's
definition in the --repositories file. Without it, the --spec,
--archive, --compression, and --checksum flags apply.`,
		Examples: []cli.Example{
			{
				Description: "Package for a configured repository",
				Command:     "deposit package ./submission-042 --repository jscholarship --repositories repositories.json",
			},
			{
				Description: "Package with explicit layers, no repository definition",
				Command:     "deposit package ./submission-042 --archive zip --compression none",
			},
			{
				Description: "Record BLAKE3 digests alongside the defaults",
				Command:     "deposit package ./submission-042 --checksum sha256 --checksum blake3",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("package", pflag.ContinueOnError)
			flagSet.StringVar(&params.repositories, "repositories", repositoriesPathDefault(), "path to the repository definitions file")
			flagSet.StringVar(&params.repository, "repository", "", "repository key whose definition selects the packaging settings")
			flagSet.StringVar(&params.specification, "spec", assembler.InventorySpecificationID, "packaging specification ID")
			flagSet.StringVar(&params.archive, "archive", "tar", "archive layer: none, tar, or zip")
			flagSet.StringVar(&params.compression, "compression", "gzip", "compression layer: none, gzip, bzip2, zstd, or lz4")
			flagSet.StringSliceVar(&params.checksums, "checksum", nil, "checksum algorithm to record (repeatable; default sha256 and md5)")
			flagSet.StringVar(&params.out, "out", ".", "directory to write the package file into")
			flagSet.BoolVar(&params.outputJSON, "json", false, "print the package metadata as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one submission directory, got %d arguments\n\nusage: deposit package [flags] <submission-dir>", len(args))
			}

			submission, err := deposit.LoadDir(args[0])
			if err != nil {
				return err
			}

			opts, err := params.options()
			if err != nil {
				return err
			}

			engine := &assembler.Assembler{Logger: logger}
			stream, err := engine.Assemble(ctx, submission, opts)
			if err != nil {
				return err
			}
			defer stream.Close()

			metadata := stream.Metadata()
			if err := os.MkdirAll(params.out, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			path := filepath.Join(params.out, submission.ID+assembler.Extension(metadata.Archive, metadata.Compression))
			if err := stream.WriteFile(path); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(packageResult{Path: path, Metadata: metadata})
			}

			fmt.Printf("package:   %s\n", path)
			fmt.Printf("type:      %s\n", metadata.MediaType)
			fmt.Printf("size:      %s\n", formatSize(metadata.Size))
			fmt.Printf("resources: %d\n", len(metadata.Resources))
			for _, digest := range metadata.Checksums {
				fmt.Printf("%s\n", digest)
			}
			return nil
		},
	}
}

// options resolves the assembly options, from the named repository's
// definition when one was given and from the explicit flags
// otherwise.
func (p *packageParams) options() (assembler.Options, error) {
	if p.repository != "" {
		registry, err := loadRegistry(p.repositories)
		if err != nil {
			return assembler.Options{}, err
		}
		repository, err := registry.Repository(p.repository)
		if err != nil {
			return assembler.Options{}, err
		}
		return repository.AssemblerOptions()
	}

	specification, err := assembler.LookupSpecification(p.specification)
	if err != nil {
		return assembler.Options{}, err
	}
	format, err := assembler.ParseArchiveFormat(p.archive)
	if err != nil {
		return assembler.Options{}, err
	}
	compression, err := assembler.ParseCompression(p.compression)
	if err != nil {
		return assembler.Options{}, err
	}
	var algorithms []checksum.Algorithm
	for _, name := range p.checksums {
		algorithm, err := checksum.ParseAlgorithm(name)
		if err != nil {
			return assembler.Options{}, err
		}
		algorithms = append(algorithms, algorithm)
	}

	return assembler.Options{
		Specification: specification,
		Archive:       format,
		Compression:   compression,
		Algorithms:    algorithms,
	}, nil
}
