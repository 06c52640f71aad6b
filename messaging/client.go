// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects and queue groups used on the bus.
const (
	// SubjectSubmissions carries SubmissionRequest payloads to
	// workers.
	SubjectSubmissions = "deposit.submissions"

	// SubjectEvents carries DepositEvent payloads to every listener.
	SubjectEvents = "deposit.events"

	// QueueWorkers is the queue group workers share, so each
	// submission request is handled by exactly one of them.
	QueueWorkers = "deposit-workers"
)

// Config holds the parameters for connecting to the bus.
type Config struct {
	// URL is the NATS server URL. Defaults to nats.DefaultURL.
	URL string

	// Name identifies this connection to the server, visible in
	// server monitoring. Defaults to "deposit-services".
	Name string

	// Logger receives connection lifecycle and delivery problems.
	// nil discards.
	Logger *slog.Logger
}

// Client is a connection to the deposit bus.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect dials the bus. The connection reconnects indefinitely with
// a fixed backoff; the caller owns the final Drain.
func Connect(cfg Config) (*Client, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	name := cfg.Name
	if name == "" {
		name = "deposit-services"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("bus disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("bus reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("bus connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: connecting to %s: %w", url, err)
	}
	logger.Info("bus connected", "url", conn.ConnectedUrl(), "name", name)

	return &Client{conn: conn, logger: logger}, nil
}

// Drain flushes buffered messages and pending handlers, then closes
// the connection.
func (c *Client) Drain() error {
	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("messaging: drain: %w", err)
	}
	return nil
}

// PublishSubmission sends a submission request to the workers. The
// request is validated first, and the publish is flushed to the
// server before returning, bounded by ctx.
func (c *Client) PublishSubmission(ctx context.Context, request *SubmissionRequest) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("messaging: %w", err)
	}
	if err := c.publish(ctx, SubjectSubmissions, request); err != nil {
		return err
	}
	c.logger.Info("submission published",
		"submission", request.SubmissionID,
		"repository", request.Repository,
		"files", len(request.Files),
	)
	return nil
}

// SubscribeSubmissions delivers submission requests to handler
// through the worker queue group. Malformed payloads are logged and
// dropped; a handler error is logged with the submission id and the
// message is not redelivered.
func (c *Client) SubscribeSubmissions(handler func(*SubmissionRequest) error) (*nats.Subscription, error) {
	sub, err := c.conn.QueueSubscribe(SubjectSubmissions, QueueWorkers, func(msg *nats.Msg) {
		var request SubmissionRequest
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			c.logger.Error("dropping malformed submission request", "error", err)
			return
		}
		if err := handler(&request); err != nil {
			c.logger.Error("submission handler failed",
				"submission", request.SubmissionID,
				"error", err,
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: subscribing to %s: %w", SubjectSubmissions, err)
	}
	return sub, nil
}

// PublishEvent announces a deposit lifecycle change to every
// listener.
func (c *Client) PublishEvent(ctx context.Context, event *DepositEvent) error {
	if event.DepositID == "" {
		return fmt.Errorf("messaging: deposit event has no deposit id")
	}
	return c.publish(ctx, SubjectEvents, event)
}

// SubscribeEvents delivers deposit events to handler. Every
// subscriber sees every event.
func (c *Client) SubscribeEvents(handler func(*DepositEvent) error) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(SubjectEvents, func(msg *nats.Msg) {
		var event DepositEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Error("dropping malformed deposit event", "error", err)
			return
		}
		if err := handler(&event); err != nil {
			c.logger.Error("event handler failed",
				"deposit", event.DepositID,
				"error", err,
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: subscribing to %s: %w", SubjectEvents, err)
	}
	return sub, nil
}

func (c *Client) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messaging: encoding %s payload: %w", subject, err)
	}
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("messaging: publishing to %s: %w", subject, err)
	}
	if err := c.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: flushing %s: %w", subject, err)
	}
	return nil
}
