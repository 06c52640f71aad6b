// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/birkland/deposit-services/assembler"
)

// Hint keys every transport understands. Generic keys carry the
// protocol selection and credentials; protocol-specific keys live
// under the protocol's own prefix.
const (
	HintProtocol   = "deposit.transport.protocol"
	HintServerFQDN = "deposit.transport.server-fqdn"
	HintServerPort = "deposit.transport.server-port"
	HintAuthMode   = "deposit.transport.authmode"
	HintUsername   = "deposit.transport.username"
	HintPassword   = "deposit.transport.password"
)

// SWORDv2 hint keys.
const (
	HintSwordServiceDoc       = "deposit.transport.protocol.swordv2.service-doc"
	HintSwordTargetCollection = "deposit.transport.protocol.swordv2.target-collection"
	HintSwordOnBehalfOf       = "deposit.transport.protocol.swordv2.on-behalf-of"
	HintSwordDepositReceipt   = "deposit.transport.protocol.swordv2.deposit-receipt"
	HintSwordUserAgent        = "deposit.transport.protocol.swordv2.user-agent-string"
)

// FTP hint keys.
const (
	HintFTPBaseDirectory = "deposit.transport.protocol.ftp.base-directory"
	HintFTPTransferMode  = "deposit.transport.protocol.ftp.transfer-mode"
	HintFTPUsePasv       = "deposit.transport.protocol.ftp.use-pasv"
	HintFTPDataType      = "deposit.transport.protocol.ftp.data-type"
)

// Filesystem transport hint keys.
const (
	HintFileBaseDirectory = "deposit.transport.protocol.file.base-directory"
	HintFileInitialState  = "deposit.transport.protocol.file.initial-state"
)

// Transport opens sessions to repositories speaking one protocol.
type Transport interface {
	// Protocol returns the protocol name this transport answers to
	// in a repository's protocol binding. Matching is exact and
	// case-sensitive.
	Protocol() string

	// Open establishes a session using the hint map assembled from
	// the repository's protocol binding and credentials. The session
	// holds any per-connection state; Open validates the hints it
	// needs and fails fast on missing ones.
	Open(ctx context.Context, hints map[string]string) (Session, error)
}

// Session is an open channel to one repository. Sessions are not
// safe for concurrent Send calls.
type Session interface {
	// Send transmits the package under the given deposit name and
	// returns where it landed.
	Send(ctx context.Context, name string, pkg *assembler.PackageStream) (Receipt, error)

	// Close releases the session.
	Close() error
}

// Receipt reports where a deposit landed.
type Receipt struct {
	// Location is the repository's reference for the deposited
	// package (an item URL, or a path for local transports).
	Location string

	// StatementURL locates the deposit statement to poll for status,
	// when the repository provides one. Empty means the repository
	// offers no statement and the deposit's status will not advance
	// on its own.
	StatementURL string
}

// Hints assembles the hint map for opening a session: the protocol
// binding's own hints plus the generic protocol and credential keys.
// The input map is not modified.
func Hints(protocol string, hints map[string]string, username, password string) map[string]string {
	merged := make(map[string]string, len(hints)+3)
	for key, value := range hints {
		merged[key] = value
	}
	merged[HintProtocol] = protocol
	if username != "" {
		merged[HintUsername] = username
	}
	if password != "" {
		merged[HintPassword] = password
	}
	return merged
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Transport)
)

// Register adds a transport to the registry. Call from init. A
// duplicate protocol name panics: two transports claiming one
// protocol is a programming error, not a runtime condition.
func Register(t Transport) {
	registryMu.Lock()
	defer registryMu.Unlock()
	protocol := t.Protocol()
	if _, exists := registry[protocol]; exists {
		panic(fmt.Sprintf("transport: protocol %s registered twice", protocol))
	}
	registry[protocol] = t
}

// Lookup returns the transport registered for a protocol name.
func Lookup(protocol string) (Transport, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[protocol]
	if !ok {
		return nil, fmt.Errorf("no transport registered for protocol %s", protocol)
	}
	return t, nil
}

// Protocols returns the registered protocol names, sorted.
func Protocols() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
