// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command vanga-opsd runs a segment store alongside its ops HTTP surface:
// ingestion from NATS, background compaction, and a /metrics + /healthz +
// profile-lookup endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yoori/vanga-go/internal/ingest"
	"github.com/yoori/vanga-go/internal/metrics"
	"github.com/yoori/vanga-go/internal/opsserver"
	"github.com/yoori/vanga-go/internal/segstore"
	"github.com/yoori/vanga-go/pkg/report"
	"github.com/yoori/vanga-go/pkg/vlog"
)

// daemonConfig is the on-disk JSON configuration for vanga-opsd.
type daemonConfig struct {
	OpsAddr     string `json:"ops-addr"`
	StoreDir    string `json:"store-dir"`
	NatsAddress string `json:"nats-address"`
	NatsSubject string `json:"nats-subject"`
	NatsQueue   string `json:"nats-queue"`
	EnableGops  bool   `json:"gops"`
}

var defaults = daemonConfig{
	OpsAddr:     ":8181",
	StoreDir:    "./var/segstore",
	NatsAddress: "",
	NatsSubject: "vanga.segments",
	NatsQueue:   "vanga-opsd",
}

func main() {
	var flagConfigFile string
	flag.StringVar(&flagConfigFile, "config", "./vanga-opsd.json", "path to daemon config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		vlog.Fatalf("vanga-opsd: loading .env: %s", err)
	}

	cfg := defaults
	if f, err := os.Open(flagConfigFile); err == nil {
		dec := json.NewDecoder(f)
		if err := dec.Decode(&cfg); err != nil {
			vlog.Fatalf("vanga-opsd: parsing %s: %s", flagConfigFile, err)
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		vlog.Fatalf("vanga-opsd: opening %s: %s", flagConfigFile, err)
	}

	if cfg.EnableGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			vlog.Fatalf("vanga-opsd: gops/agent.Listen failed: %s", err)
		}
	}

	sink := report.LogSink{}

	// The ops server's /metrics endpoint serves the default registry, which
	// already carries the Go runtime collector.
	m := metrics.New(prometheus.DefaultRegisterer)

	store, err := segstore.Open(segstore.DefaultConfig(cfg.StoreDir), sink)
	if err != nil {
		vlog.Fatalf("vanga-opsd: opening segment store: %s", err)
	}
	store.SetMetrics(m)
	defer store.Close()

	ops := opsserver.New(cfg.OpsAddr, store)
	go func() {
		if err := ops.ListenAndServe(); err != nil {
			vlog.Errorf("vanga-opsd: ops server stopped: %s", err)
		}
	}()

	var natsClient *ingest.Client
	if cfg.NatsAddress != "" {
		natsClient, err = ingest.Connect(ingest.Config{Address: cfg.NatsAddress}, sink)
		if err != nil {
			vlog.Fatalf("vanga-opsd: connecting to NATS: %s", err)
		}
		handler := func(_ string, data []byte) {
			dec := lineprotocol.NewDecoderWithBytes(data)
			if err := ingest.DecodeLine(dec, store, sink); err != nil {
				vlog.Warnf("vanga-opsd: decoding ingest batch: %s", err)
			}
		}
		if err := natsClient.Subscribe(ingest.Config{Subject: cfg.NatsSubject, QueueGroup: cfg.NatsQueue}, handler); err != nil {
			vlog.Fatalf("vanga-opsd: subscribing to %q: %s", cfg.NatsSubject, err)
		}
		defer natsClient.Close()
	}

	vlog.Infof("vanga-opsd: ready (ops=%s store=%s)", cfg.OpsAddr, cfg.StoreDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := ops.Shutdown(); err != nil {
		vlog.Warnf("vanga-opsd: ops server shutdown: %s", err)
	}
}
