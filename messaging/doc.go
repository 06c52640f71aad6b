// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging connects the deposit services over NATS.
// Submission requests flow to workers on the deposit.submissions
// subject through a queue group, so any one worker picks up each
// request; deposit lifecycle events fan out to every listener on
// deposit.events. Payloads are JSON.
//
// Delivery is at-most-once: a malformed payload is logged and
// dropped, and a handler error is logged without redelivery. Durable
// state lives in the ledger, not in the bus.
package messaging
