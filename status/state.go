// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"fmt"
	"strings"
)

// State is a canonical deposit state advertised by a repository in a
// SWORD statement. The constants are ordered by precedence: when a
// statement carries several state markers, the highest value wins.
type State uint8

const (
	// StateUnknown means no recognized state marker was found.
	StateUnknown State = iota

	// StateInProgress marks a deposit the repository is still
	// ingesting.
	StateInProgress

	// StateInReview marks a deposit held for curatorial review.
	StateInReview

	// StateWithdrawn marks a deposit removed from the repository.
	StateWithdrawn

	// StateArchived marks a deposit that reached the repository's
	// permanent store.
	StateArchived
)

// dspaceStatePrefix is the URI prefix DSpace puts on its state terms.
const dspaceStatePrefix = "http://dspace.org/state/"

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateInProgress:
		return "in-progress"
	case StateInReview:
		return "in-review"
	case StateWithdrawn:
		return "withdrawn"
	case StateArchived:
		return "archived"
	default:
		return fmt.Sprintf("invalid state %d", uint8(s))
	}
}

// TermURI returns the DSpace term URI for the state, or "" for
// StateUnknown.
func (s State) TermURI() string {
	switch s {
	case StateInProgress:
		return dspaceStatePrefix + "inprogress"
	case StateInReview:
		return dspaceStatePrefix + "inreview"
	case StateWithdrawn:
		return dspaceStatePrefix + "withdrawn"
	case StateArchived:
		return dspaceStatePrefix + "archived"
	default:
		return ""
	}
}

// ParseState converts a state token to a State. It accepts the
// canonical hyphenated tokens used in configuration files.
func ParseState(token string) (State, error) {
	switch token {
	case "in-progress":
		return StateInProgress, nil
	case "in-review":
		return StateInReview, nil
	case "withdrawn":
		return StateWithdrawn, nil
	case "archived":
		return StateArchived, nil
	default:
		return StateUnknown, fmt.Errorf("unknown deposit state %q", token)
	}
}

// parseStateTerm interprets an Atom category term carrying the SWORD
// state scheme. It accepts the full DSpace term URIs and bare tokens
// in both the hyphenated and the DSpace run-together spelling.
// Unrecognized terms report ok=false and are skipped by the parser.
func parseStateTerm(term string) (State, bool) {
	if rest, found := strings.CutPrefix(term, dspaceStatePrefix); found {
		term = rest
	}
	switch term {
	case "inprogress", "in-progress":
		return StateInProgress, true
	case "inreview", "in-review":
		return StateInReview, true
	case "withdrawn":
		return StateWithdrawn, true
	case "archived":
		return StateArchived, true
	default:
		return StateUnknown, false
	}
}

// MarshalText implements encoding.TextMarshaler so states appear as
// their tokens in JSON event payloads.
func (s State) MarshalText() ([]byte, error) {
	if s > StateArchived {
		return nil, fmt.Errorf("invalid state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*s = StateUnknown
		return nil
	}
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
