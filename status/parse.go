// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// StateScheme is the Atom category scheme that marks a category as a
// SWORD deposit-state term.
const StateScheme = "http://purl.org/net/sword/terms/state"

// Fetch retrieves the bytes of a statement document. Implementations
// own the transport policy: timeouts, credentials, redirects.
type Fetch func(ctx context.Context, location string) (io.ReadCloser, error)

// Parser resolves the deposit state advertised in SWORD statement
// documents.
type Parser struct {
	// Fetch retrieves statement documents. Required.
	Fetch Fetch

	// Logger receives resolution progress. nil discards.
	Logger *slog.Logger
}

// Parse fetches the statement at location and returns the deposit
// state it advertises. A statement with no recognized state marker
// yields StateUnknown with a nil error; every fetch or decode fault
// is reported as a *ParseError naming the document.
func (p *Parser) Parse(ctx context.Context, location string) (State, error) {
	if p.Fetch == nil {
		return StateUnknown, &ParseError{Document: location, Err: errors.New("parser has no fetch function")}
	}
	body, err := p.Fetch(ctx, location)
	if err != nil {
		return StateUnknown, &ParseError{Document: location, Err: fmt.Errorf("fetching statement: %w", err)}
	}
	defer body.Close()

	state, err := ParseStatement(body, location)
	if err != nil {
		return StateUnknown, err
	}
	if p.Logger != nil {
		p.Logger.Debug("statement parsed", "document", location, "state", state.String())
	}
	return state, nil
}

// atomCategory is a <category> element of an Atom statement. Only
// the scheme and term attributes matter for state extraction.
type atomCategory struct {
	Scheme string `xml:"scheme,attr"`
	Term   string `xml:"term,attr"`
}

type atomEntry struct {
	Categories []atomCategory `xml:"category"`
}

type atomStatement struct {
	XMLName    xml.Name       `xml:"feed"`
	Categories []atomCategory `xml:"category"`
	Entries    []atomEntry    `xml:"entry"`
}

// ParseStatement decodes an Atom statement and extracts the deposit
// state. Categories with the SWORD state scheme are considered at
// the feed level and inside every entry; with several markers the
// most terminal state wins regardless of document order. Terms with
// the state scheme but an unrecognized value are skipped. location
// only labels errors.
func ParseStatement(r io.Reader, location string) (State, error) {
	var doc atomStatement
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return StateUnknown, &ParseError{Document: location, Err: fmt.Errorf("decoding atom statement: %w", err)}
	}

	state := StateUnknown
	consider := func(category atomCategory) {
		if category.Scheme != StateScheme {
			return
		}
		parsed, ok := parseStateTerm(category.Term)
		if !ok {
			return
		}
		if parsed > state {
			state = parsed
		}
	}

	for _, category := range doc.Categories {
		consider(category)
	}
	for _, entry := range doc.Entries {
		for _, category := range entry.Categories {
			consider(category)
		}
	}
	return state, nil
}

// HTTPFetch returns a Fetch that retrieves statement documents over
// HTTP with the given client. Any response outside the 2xx range is
// a fetch fault.
func HTTPFetch(client *http.Client) Fetch {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, location string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/atom+xml")
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected response %s", resp.Status)
		}
		return resp.Body, nil
	}
}

// FileFetch returns a Fetch that reads statement documents from the
// local filesystem. Locations are file paths.
func FileFetch() Fetch {
	return func(_ context.Context, location string) (io.ReadCloser, error) {
		return os.Open(location)
	}
}

// LocationFetch returns a Fetch that dispatches on the location
// shape: http and https URLs go through HTTPFetch with the given
// client, anything else is read as a local file path. Repositories
// publish statement URLs while tests and local transports hand out
// paths, so the poller and the CLI both take this combined form.
func LocationFetch(client *http.Client) Fetch {
	overHTTP := HTTPFetch(client)
	fromDisk := FileFetch()
	return func(ctx context.Context, location string) (io.ReadCloser, error) {
		if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
			return overHTTP(ctx, location)
		}
		return fromDisk(ctx, location)
	}
}
