// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package modelregistry catalogs trained tree ensembles in a small SQLite
// database: when each was trained, its hyperparameters, and where its
// VANGA-TREE file lives, so a serving process can discover and roll back
// models (spec.md §4.4, §4.5 name training and serialization but not a
// catalog; this supplements the distillation the way a teacher would reach
// for a small embedded registry).
package modelregistry

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	gosqlite3 "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/yoori/vanga-go/pkg/vlog"
)

//go:embed migrations/*
var migrationFiles embed.FS

// hooks logs every query and its duration via pkg/vlog, in the teacher's
// sqlhooks pattern.
type hooks struct{}

type timingKey struct{}

func (hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	vlog.Debugf("modelregistry: query %s %q", query, args)
	return context.WithValue(ctx, timingKey{}, time.Now()), nil
}

func (hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(timingKey{}).(time.Time); ok {
		vlog.Debugf("modelregistry: took %s", time.Since(begin))
	}
	return ctx, nil
}

// Registry wraps a single-connection SQLite database recording trained
// ensembles (spec.md's "sqlite does not multithread" rationale from the
// teacher applies equally here).
type Registry struct {
	DB *sqlx.DB
}

var driverRegistered bool

// Open opens (creating if absent) the SQLite database at path, applies
// pending migrations, and returns a ready Registry.
func Open(path string) (*Registry, error) {
	if !driverRegistered {
		sql.Register("vanga_sqlite3", sqlhooks.Wrap(&gosqlite3.SQLiteDriver{}, &hooks{}))
		driverRegistered = true
	}
	db, err := sqlx.Open("vanga_sqlite3", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("modelregistry: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db.DB); err != nil {
		return nil, err
	}
	return &Registry{DB: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("modelregistry: migration driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("modelregistry: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("modelregistry: migration init: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("modelregistry: migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (r *Registry) Close() error {
	return r.DB.Close()
}
