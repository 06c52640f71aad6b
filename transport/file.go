// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/status"
)

func init() {
	Register(fileTransport{})
}

// fileTransport drops packages into a local directory. Alongside
// each package it writes an Atom statement stub advertising a fixed
// deposit state, so the status poller can run against a filesystem
// repository exactly as it would against a SWORD endpoint.
type fileTransport struct{}

func (fileTransport) Protocol() string { return "file" }

func (fileTransport) Open(_ context.Context, hints map[string]string) (Session, error) {
	dir := hints[HintFileBaseDirectory]
	if dir == "" {
		return nil, fmt.Errorf("transport file: hint %s is required", HintFileBaseDirectory)
	}

	state := status.StateInProgress
	if token := hints[HintFileInitialState]; token != "" {
		parsed, err := status.ParseState(token)
		if err != nil {
			return nil, fmt.Errorf("transport file: hint %s: %w", HintFileInitialState, err)
		}
		state = parsed
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transport file: %w", err)
	}
	return &fileSession{dir: dir, state: state}, nil
}

type fileSession struct {
	dir   string
	state status.State
}

func (s *fileSession) Send(ctx context.Context, name string, pkg *assembler.PackageStream) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	metadata := pkg.Metadata()
	packagePath := filepath.Join(s.dir, name+assembler.Extension(metadata.Archive, metadata.Compression))
	if err := pkg.WriteFile(packagePath); err != nil {
		return Receipt{}, fmt.Errorf("transport file: %w", err)
	}

	statementPath := filepath.Join(s.dir, name+".statement.xml")
	if err := os.WriteFile(statementPath, statementStub(s.state), 0o644); err != nil {
		os.Remove(packagePath)
		return Receipt{}, fmt.Errorf("transport file: writing statement: %w", err)
	}

	return Receipt{Location: packagePath, StatementURL: statementPath}, nil
}

func (s *fileSession) Close() error { return nil }

// statementStub renders a minimal Atom statement carrying one SWORD
// state marker.
func statementStub(state status.State) []byte {
	return fmt.Appendf(nil, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <category scheme=%q term=%q label="State"/>
</feed>
`, status.StateScheme, state.TermURI())
}
