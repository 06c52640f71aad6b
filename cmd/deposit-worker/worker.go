// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/ledger"
	"github.com/birkland/deposit-services/lib/clock"
	"github.com/birkland/deposit-services/lib/repodef"
	"github.com/birkland/deposit-services/messaging"
	"github.com/birkland/deposit-services/transport"
)

// EventPublisher publishes deposit lifecycle events. The worker and
// the poller depend on this interface so tests can capture events
// without a queue connection.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *messaging.DepositEvent) error
}

// Worker turns one submission request into one deposit: assemble the
// package, send it through the repository's transport, record the
// deposit, announce it.
type Worker struct {
	Assembler *assembler.Assembler
	Registry  *repodef.Registry
	Ledger    *ledger.Ledger
	Events    EventPublisher
	Workspace string
	Clock     clock.Clock
	Logger    *slog.Logger
}

// HandleSubmission processes a submission request end to end. The
// returned error is logged by the queue subscription with the
// submission ID; the request is not redelivered.
func (w *Worker) HandleSubmission(ctx context.Context, request *messaging.SubmissionRequest) error {
	logger := w.Logger.With("submission", request.SubmissionID, "repository", request.Repository)

	repository, err := w.Registry.Repository(request.Repository)
	if err != nil {
		return err
	}
	opts, err := repository.AssemblerOptions()
	if err != nil {
		return err
	}
	opts.Dir = w.Workspace

	submission, err := submissionFromRequest(request)
	if err != nil {
		return err
	}

	stream, err := w.Assembler.Assemble(ctx, submission, opts)
	if err != nil {
		return err
	}
	defer stream.Close()

	receipt, err := w.send(ctx, repository, request.SubmissionID, stream)
	if err != nil {
		return err
	}

	metadata := stream.Metadata()
	record := &ledger.Deposit{
		SubmissionID:  request.SubmissionID,
		Repository:    request.Repository,
		PackagePath:   receipt.Location,
		Specification: metadata.Specification,
		Archive:       metadata.Archive,
		Compression:   metadata.Compression,
		Size:          metadata.Size,
		Checksums:     metadata.Checksums,
		Status:        deposit.StatusSubmitted,
		StatementURL:  resolveStatementRef(repository.DepositConfig.Processing.StatementURIPrefix, receipt.StatementURL),
	}
	if err := w.Ledger.Record(ctx, record); err != nil {
		return err
	}

	event := &messaging.DepositEvent{
		DepositID:    record.ID,
		SubmissionID: record.SubmissionID,
		Repository:   record.Repository,
		Status:       record.Status,
		Location:     record.PackagePath,
		Timestamp:    w.Clock.Now().UTC(),
	}
	if err := w.Events.PublishEvent(ctx, event); err != nil {
		// The deposit is recorded; a lost event is an observability
		// gap, not a failed deposit.
		logger.Error("publishing deposit event", "deposit", record.ID, "error", err)
	}

	logger.Info("submission deposited",
		"deposit", record.ID,
		"location", receipt.Location,
		"size", metadata.Size,
	)
	return nil
}

// send opens a transport session per the repository's protocol
// binding and transmits the package under the submission's deposit
// name.
func (w *Worker) send(ctx context.Context, repository *repodef.Repository, submissionID string, stream *assembler.PackageStream) (transport.Receipt, error) {
	binding := repository.TransportConfig.ProtocolBinding
	wire, err := transport.Lookup(binding.Protocol)
	if err != nil {
		return transport.Receipt{}, fmt.Errorf("repository %s: %w", repository.Key, err)
	}

	var username, password string
	if realm := repository.Realm(endpointHint(binding)); realm != nil {
		username, password = realm.Username, realm.Password
	}

	session, err := wire.Open(ctx, transport.Hints(binding.Protocol, binding.Hints, username, password))
	if err != nil {
		return transport.Receipt{}, err
	}
	defer session.Close()

	return session.Send(ctx, depositName(submissionID), stream)
}

// submissionFromRequest turns the queue request into an assembly
// input. File sizes come from stat; bytes are opened lazily when the
// assembler reaches each file.
func submissionFromRequest(request *messaging.SubmissionRequest) (*deposit.Submission, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	files := make([]deposit.ContentFile, 0, len(request.Files))
	for _, ref := range request.Files {
		role, err := deposit.ParseRole(ref.Role)
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", ref.Name, err)
		}
		info, err := os.Stat(ref.Path)
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", ref.Name, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("file %s: %s is a directory", ref.Name, ref.Path)
		}
		path := ref.Path
		files = append(files, deposit.ContentFile{
			Name: ref.Name,
			Role: role,
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}

	return &deposit.Submission{
		ID:       request.SubmissionID,
		Files:    files,
		Metadata: request.Metadata,
	}, nil
}

// depositName flattens a submission ID into a name transports can
// use as a path segment. Submission IDs are often URIs.
func depositName(submissionID string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, submissionID)
}

// endpointHint picks the binding hint a credential realm would scope
// to. SWORD bindings publish endpoint URLs; other protocols fall
// back to the generic server name.
func endpointHint(binding repodef.ProtocolBinding) string {
	for _, key := range []string{
		transport.HintSwordServiceDoc,
		transport.HintSwordTargetCollection,
		transport.HintServerFQDN,
	} {
		if value := binding.Hints[key]; value != "" {
			return value
		}
	}
	return ""
}

// resolveStatementRef resolves a receipt's statement reference
// against the repository's statement URI prefix. Absolute references
// (URLs or filesystem paths) pass through, as does an empty
// reference: there is nothing to poll.
func resolveStatementRef(prefix, ref string) string {
	if ref == "" || prefix == "" {
		return ref
	}
	if strings.Contains(ref, "://") || filepath.IsAbs(ref) {
		return ref
	}
	return prefix + ref
}
