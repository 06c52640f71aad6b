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
	"sync"
	"testing"
	"time"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/ledger"
	"github.com/birkland/deposit-services/lib/clock"
	"github.com/birkland/deposit-services/lib/repodef"
	"github.com/birkland/deposit-services/messaging"
	"github.com/birkland/deposit-services/transport"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// capturedEvents is an EventPublisher that records every event and
// signals each publication on a channel.
type capturedEvents struct {
	mu     sync.Mutex
	events []*messaging.DepositEvent
	ch     chan *messaging.DepositEvent
}

func newCapturedEvents() *capturedEvents {
	return &capturedEvents{ch: make(chan *messaging.DepositEvent, 16)}
}

func (c *capturedEvents) PublishEvent(_ context.Context, event *messaging.DepositEvent) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.ch <- event
	return nil
}

func (c *capturedEvents) all() []*messaging.DepositEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*messaging.DepositEvent(nil), c.events...)
}

type workerFixture struct {
	worker   *Worker
	events   *capturedEvents
	book     *ledger.Ledger
	deposits string
}

// newWorkerFixture wires a worker against the filesystem transport:
// one repository keyed "dropzone" that lands packages in a temp
// directory, an in-memory ledger, and a captured event sink.
func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	deposits := t.TempDir()
	definitions := fmt.Sprintf(`{
	"dropzone": {
		"deposit-config": {
			"mapping": {
				"archived": "accepted",
				"withdrawn": "rejected",
				"default-mapping": "submitted",
			},
		},
		"assembler": {
			"specification": %q,
			"archive": "tar",
			"compression": "gzip",
		},
		"transport-config": {
			"protocol-binding": {
				"protocol": "file",
				%q: %q,
			},
		},
	},
}`, assembler.InventorySpecificationID, transport.HintFileBaseDirectory, deposits)

	registry, err := repodef.Parse([]byte(definitions))
	if err != nil {
		t.Fatalf("Parse definitions: %v", err)
	}

	book, err := ledger.Open(ledger.Config{Path: filepath.Join(t.TempDir(), "ledger.db"), PoolSize: 1})
	if err != nil {
		t.Fatalf("Open ledger: %v", err)
	}
	t.Cleanup(func() { book.Close() })

	events := newCapturedEvents()
	return &workerFixture{
		worker: &Worker{
			Assembler: &assembler.Assembler{},
			Registry:  registry,
			Ledger:    book,
			Events:    events,
			Workspace: t.TempDir(),
			Clock:     clock.Fake(testEpoch),
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		events:   events,
		book:     book,
		deposits: deposits,
	}
}

// submissionRequest writes content files into a temp directory and
// returns a request referencing them.
func submissionRequest(t *testing.T, id string) *messaging.SubmissionRequest {
	t.Helper()
	content := t.TempDir()
	files := map[string]string{
		"article.pdf": "%PDF-1.4 not really a manuscript",
		"data.csv":    "temperature,count\n21.5,9\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(content, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &messaging.SubmissionRequest{
		SubmissionID: id,
		Repository:   "dropzone",
		Files: []messaging.FileRef{
			{Name: "article.pdf", Path: filepath.Join(content, "article.pdf"), Role: "manuscript"},
			{Name: "data.csv", Path: filepath.Join(content, "data.csv"), Role: "supplement"},
		},
		Metadata: map[string]string{"title": "On the Packaging of Deposits"},
	}
}

func TestWorkerHandleSubmission(t *testing.T) {
	fx := newWorkerFixture(t)
	request := submissionRequest(t, "urn:submission:42")

	if err := fx.worker.HandleSubmission(context.Background(), request); err != nil {
		t.Fatalf("HandleSubmission: %v", err)
	}

	// The package landed in the transport directory under the
	// flattened submission id plus the layer extension.
	wantPackage := filepath.Join(fx.deposits, "urn-submission-42.tar.gz")
	if _, err := os.Stat(wantPackage); err != nil {
		t.Fatalf("package file: %v", err)
	}

	records, err := fx.book.List(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ledger holds %d records, want 1", len(records))
	}
	record := records[0]
	if record.SubmissionID != "urn:submission:42" {
		t.Errorf("SubmissionID = %q", record.SubmissionID)
	}
	if record.Repository != "dropzone" {
		t.Errorf("Repository = %q", record.Repository)
	}
	if record.Status != deposit.StatusSubmitted {
		t.Errorf("Status = %q, want submitted", record.Status)
	}
	if record.PackagePath != wantPackage {
		t.Errorf("PackagePath = %q, want %q", record.PackagePath, wantPackage)
	}
	if record.Specification != assembler.InventorySpecificationID {
		t.Errorf("Specification = %q", record.Specification)
	}
	if record.Archive != assembler.ArchiveTar || record.Compression != assembler.CompressionGzip {
		t.Errorf("layers = %v/%v, want tar/gzip", record.Archive, record.Compression)
	}
	if record.Size <= 0 {
		t.Errorf("Size = %d, want > 0", record.Size)
	}
	if len(record.Checksums) != 2 {
		t.Errorf("Checksums = %v, want the two defaults", record.Checksums)
	}
	if record.StatementURL == "" {
		t.Fatal("record has no statement URL")
	}
	if _, err := os.Stat(record.StatementURL); err != nil {
		t.Errorf("statement document: %v", err)
	}

	events := fx.events.all()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	event := events[0]
	if event.DepositID != record.ID {
		t.Errorf("event DepositID = %q, want %q", event.DepositID, record.ID)
	}
	if event.Status != deposit.StatusSubmitted {
		t.Errorf("event Status = %q, want submitted", event.Status)
	}
	if event.Location != wantPackage {
		t.Errorf("event Location = %q, want %q", event.Location, wantPackage)
	}
	if event.State != 0 {
		t.Errorf("handoff event State = %v, want zero", event.State)
	}
}

func TestWorkerHandleSubmissionFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*testing.T, *messaging.SubmissionRequest)
		wantErr string
	}{
		{
			name: "unconfigured repository",
			mutate: func(_ *testing.T, r *messaging.SubmissionRequest) {
				r.Repository = "nonesuch"
			},
			wantErr: "not defined",
		},
		{
			name: "missing content file",
			mutate: func(t *testing.T, r *messaging.SubmissionRequest) {
				r.Files[1].Path = filepath.Join(t.TempDir(), "vanished.csv")
			},
			wantErr: "data.csv",
		},
		{
			name: "empty request",
			mutate: func(_ *testing.T, r *messaging.SubmissionRequest) {
				r.Files = nil
			},
			wantErr: "no files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newWorkerFixture(t)
			request := submissionRequest(t, "urn:submission:7")
			tt.mutate(t, request)

			err := fx.worker.HandleSubmission(context.Background(), request)
			if err == nil {
				t.Fatal("HandleSubmission accepted a bad request")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}

			// A failed submission leaves nothing behind: no record,
			// no event, no package in the drop directory.
			records, listErr := fx.book.List(context.Background(), ledger.Filter{})
			if listErr != nil {
				t.Fatalf("List: %v", listErr)
			}
			if len(records) != 0 {
				t.Errorf("ledger holds %d records after a failure", len(records))
			}
			if got := fx.events.all(); len(got) != 0 {
				t.Errorf("published %d events after a failure", len(got))
			}
			entries, _ := os.ReadDir(fx.deposits)
			if len(entries) != 0 {
				t.Errorf("transport directory holds %d entries after a failure", len(entries))
			}
		})
	}
}

func TestDepositName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"urn:submission:42", "urn-submission-42"},
		{"submissions/2026/42", "submissions-2026-42"},
		{"plain-042", "plain-042"},
	}
	for _, tt := range tests {
		if got := depositName(tt.in); got != tt.want {
			t.Errorf("depositName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveStatementRef(t *testing.T) {
	const prefix = "https://repo.example.edu/statement/"
	tests := []struct {
		name, prefix, ref, want string
	}{
		{"relative ref gains the prefix", prefix, "deposit-42", prefix + "deposit-42"},
		{"absolute URL passes through", prefix, "https://other.example.edu/s/42", "https://other.example.edu/s/42"},
		{"absolute path passes through", prefix, "/var/deposits/42.statement.xml", "/var/deposits/42.statement.xml"},
		{"empty ref stays empty", prefix, "", ""},
		{"no prefix leaves the ref alone", "", "deposit-42", "deposit-42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveStatementRef(tt.prefix, tt.ref); got != tt.want {
				t.Errorf("resolveStatementRef(%q, %q) = %q, want %q", tt.prefix, tt.ref, got, tt.want)
			}
		})
	}
}

func TestEndpointHint(t *testing.T) {
	binding := repodef.ProtocolBinding{
		Protocol: "SWORDv2",
		Hints: map[string]string{
			transport.HintSwordServiceDoc: "https://repo.example.edu/swordv2/servicedocument",
			transport.HintServerFQDN:      "repo.example.edu",
		},
	}
	if got := endpointHint(binding); got != "https://repo.example.edu/swordv2/servicedocument" {
		t.Errorf("endpointHint = %q, want the service document", got)
	}

	delete(binding.Hints, transport.HintSwordServiceDoc)
	if got := endpointHint(binding); got != "repo.example.edu" {
		t.Errorf("endpointHint = %q, want the server name", got)
	}

	if got := endpointHint(repodef.ProtocolBinding{Protocol: "file"}); got != "" {
		t.Errorf("endpointHint = %q, want empty for a bindingless protocol", got)
	}
}
