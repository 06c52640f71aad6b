// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/birkland/deposit-services/ledger"
	"github.com/birkland/deposit-services/lib/clock"
	"github.com/birkland/deposit-services/messaging"
	"github.com/birkland/deposit-services/status"
)

// Poller advances recorded deposits by polling their statement
// documents. One poller runs per worker process.
type Poller struct {
	Ledger   *ledger.Ledger
	Parser   *status.Parser
	Mapper   *status.Mapper
	Events   EventPublisher
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Run polls on every interval tick until the context is canceled.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.Clock.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce resolves the status of every pending deposit. Faults on
// one deposit are logged and do not block the rest; the next tick
// retries whatever is still pending.
func (p *Poller) pollOnce(ctx context.Context) {
	pending, err := p.Ledger.Pending(ctx)
	if err != nil {
		p.Logger.Error("listing pending deposits", "error", err)
		return
	}
	for _, record := range pending {
		if ctx.Err() != nil {
			return
		}
		p.resolve(ctx, record)
	}
}

// resolve fetches one deposit's statement, maps the advertised state
// to a domain status, and records and announces the transition when
// the status actually moved.
func (p *Poller) resolve(ctx context.Context, record *ledger.Deposit) {
	logger := p.Logger.With("deposit", record.ID, "repository", record.Repository)

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	state, err := p.Parser.Parse(ctx, record.StatementURL)
	if err != nil {
		logger.Error("parsing statement", "document", record.StatementURL, "error", err)
		return
	}

	next, err := p.Mapper.Map(record.Repository, state)
	if err != nil {
		logger.Error("mapping deposit state", "state", state.String(), "error", err)
		return
	}

	changed, err := p.Ledger.UpdateStatus(ctx, record.ID, next)
	if err != nil {
		logger.Error("updating deposit status", "status", next, "error", err)
		return
	}
	if !changed {
		return
	}

	logger.Info("deposit status advanced", "state", state.String(), "status", next)
	event := &messaging.DepositEvent{
		DepositID:    record.ID,
		SubmissionID: record.SubmissionID,
		Repository:   record.Repository,
		Status:       next,
		State:        state,
		Timestamp:    p.Clock.Now().UTC(),
	}
	if err := p.Events.PublishEvent(ctx, event); err != nil {
		logger.Error("publishing deposit event", "error", err)
	}
}
