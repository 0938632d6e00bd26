// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package modelregistry

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Model is one catalog row: an ensemble's hyperparameters and where its
// VANGA-TREE file (internal/tree's §6.1 wire format) lives on disk.
type Model struct {
	ID        int64
	Name      string
	Tag       string
	Loss      string
	BagCount  int
	TreeCount int
	Path      string
	TestLoss  float64
	TrainedAt time.Time
	CreatedAt time.Time
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Save inserts a new catalog row for a freshly trained ensemble and returns
// its assigned id.
func (r *Registry) Save(m Model) (int64, error) {
	query, args, err := psql.Insert("tree_models").
		Columns("name", "tag", "loss", "bag_count", "tree_count", "path", "test_loss", "trained_at").
		Values(m.Name, m.Tag, m.Loss, m.BagCount, m.TreeCount, m.Path, m.TestLoss, m.TrainedAt).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("modelregistry: build insert: %w", err)
	}
	res, err := r.DB.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("modelregistry: insert: %w", err)
	}
	return res.LastInsertId()
}

// Get returns the catalog row for id.
func (r *Registry) Get(id int64) (Model, error) {
	query, args, err := psql.Select("id", "name", "tag", "loss", "bag_count", "tree_count", "path", "test_loss", "trained_at", "created_at").
		From("tree_models").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Model{}, fmt.Errorf("modelregistry: build select: %w", err)
	}
	var m Model
	row := r.DB.QueryRowx(query, args...)
	if err := row.Scan(&m.ID, &m.Name, &m.Tag, &m.Loss, &m.BagCount, &m.TreeCount, &m.Path, &m.TestLoss, &m.TrainedAt, &m.CreatedAt); err != nil {
		return Model{}, fmt.Errorf("modelregistry: get %d: %w", id, err)
	}
	return m, nil
}

// Latest returns the most recently trained model for tag (or across all
// tags when tag is empty), used by a serving process to pick up new
// ensembles without a restart.
func (r *Registry) Latest(tag string) (Model, bool, error) {
	b := psql.Select("id", "name", "tag", "loss", "bag_count", "tree_count", "path", "test_loss", "trained_at", "created_at").
		From("tree_models").
		OrderBy("trained_at DESC").
		Limit(1)
	if tag != "" {
		b = b.Where(sq.Eq{"tag": tag})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return Model{}, false, fmt.Errorf("modelregistry: build select: %w", err)
	}
	var m Model
	row := r.DB.QueryRowx(query, args...)
	if err := row.Scan(&m.ID, &m.Name, &m.Tag, &m.Loss, &m.BagCount, &m.TreeCount, &m.Path, &m.TestLoss, &m.TrainedAt, &m.CreatedAt); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return Model{}, false, nil
		}
		return Model{}, false, fmt.Errorf("modelregistry: latest: %w", err)
	}
	return m, true, nil
}

// ListByTag returns every catalog row for tag, newest first.
func (r *Registry) ListByTag(tag string) ([]Model, error) {
	query, args, err := psql.Select("id", "name", "tag", "loss", "bag_count", "tree_count", "path", "test_loss", "trained_at", "created_at").
		From("tree_models").
		Where(sq.Eq{"tag": tag}).
		OrderBy("trained_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("modelregistry: build select: %w", err)
	}
	rows, err := r.DB.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("modelregistry: list by tag %q: %w", tag, err)
	}
	defer rows.Close()

	var out []Model
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.ID, &m.Name, &m.Tag, &m.Loss, &m.BagCount, &m.TreeCount, &m.Path, &m.TestLoss, &m.TrainedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes the catalog row for id. It does not remove the underlying
// tree file; callers prune those separately once no row references them.
func (r *Registry) Delete(id int64) error {
	query, args, err := psql.Delete("tree_models").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("modelregistry: build delete: %w", err)
	}
	_, err = r.DB.Exec(query, args...)
	return err
}
