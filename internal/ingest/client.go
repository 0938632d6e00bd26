// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest feeds segment profile deltas into internal/segstore from
// an external NATS publisher, decoding each message's line-protocol payload
// into (user_id, profile_delta) writes (spec.md §4.6 is silent on the
// ingestion transport; this supplements it using the teacher's NATS
// wrapper, since a store with no write path has no external interface).
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/yoori/vanga-go/pkg/report"
	"github.com/yoori/vanga-go/pkg/vlog"
)

// Config configures a NATS connection for segment-delta ingestion.
type Config struct {
	Address       string
	Username      string
	Password      string
	CredsFilePath string
	Subject       string
	QueueGroup    string // empty disables queue-group load balancing
}

// Client wraps a NATS connection and its subscriptions. Unlike the
// connection it is built on, a Client carries no process-wide singleton:
// callers construct and own one explicitly.
type Client struct {
	conn          *nats.Conn
	subscriptions []*nats.Subscription
	mu            sync.Mutex
	sink          report.Sink
}

// MessageHandler processes one received message's raw payload.
type MessageHandler func(subject string, data []byte)

// Connect dials cfg.Address and returns a ready client.
func Connect(cfg Config, sink report.Sink) (*Client, error) {
	if sink == nil {
		sink = report.Discard{}
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("ingest: NATS address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			sink.Report(report.Event{Severity: report.Warning, Code: report.CodeIO, Description: "ingest: NATS disconnected", Err: err})
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		vlog.Infof("ingest: NATS reconnected to %s", nc.ConnectedUrl())
	}))
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		sink.Report(report.Event{Severity: report.Error, Code: report.CodeIO, Description: "ingest: NATS error", Err: err})
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("ingest: NATS connect failed: %w", err)
	}
	vlog.Infof("ingest: NATS connected to %s", cfg.Address)

	return &Client{conn: nc, sink: sink}, nil
}

// Subscribe registers handler for cfg.Subject, using a queue group when
// cfg.QueueGroup is non-empty so multiple ingest processes load-balance.
func (c *Client) Subscribe(cfg Config, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wrap := func(msg *nats.Msg) { handler(msg.Subject, msg.Data) }

	var sub *nats.Subscription
	var err error
	if cfg.QueueGroup != "" {
		sub, err = c.conn.QueueSubscribe(cfg.Subject, cfg.QueueGroup, wrap)
	} else {
		sub, err = c.conn.Subscribe(cfg.Subject, wrap)
	}
	if err != nil {
		return fmt.Errorf("ingest: subscribe to %q failed: %w", cfg.Subject, err)
	}
	c.subscriptions = append(c.subscriptions, sub)
	vlog.Infof("ingest: subscribed to %q", cfg.Subject)
	return nil
}

// Request sends data on subject and waits for a reply or ctx's deadline.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("ingest: request to %q failed: %w", subject, err)
	}
	return msg.Data, nil
}

// Close unsubscribes everything and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			c.sink.Report(report.Event{Severity: report.Warning, Code: report.CodeIO, Description: "ingest: unsubscribe failed", Err: err})
		}
	}
	c.subscriptions = nil
	if c.conn != nil {
		c.conn.Close()
	}
}
