// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config validates and decodes the learner, segment-store, and
// featurizer hyperparameter configs against JSON Schemas (spec.md §4.4,
// §4.6, §4.7, §9).
package config

const learnerSchema = `{
  "type": "object",
  "description": "Tree learner session hyperparameters.",
  "properties": {
    "step-depth": { "type": "integer", "minimum": 0 },
    "check-depth": { "type": "integer", "minimum": 1 },
    "max-iterations": { "type": "integer", "minimum": 1 },
    "min-cover": { "type": "number", "minimum": 0, "maximum": 1 },
    "allow-negative-gain": { "type": "boolean" },
    "gain-check-bags": { "type": "integer", "minimum": 0 },
    "bag-count": { "type": "integer", "minimum": 1 },
    "loss": { "type": "string", "enum": ["log-loss", "squared-deviation"] },
    "alternate-loss": { "type": "string", "enum": ["log-loss", "squared-deviation", ""] },
    "alternate-loss-prob": { "type": "number", "minimum": 0, "maximum": 1 },
    "seed": { "type": "integer" }
  },
  "required": ["max-iterations", "min-cover", "bag-count", "loss"]
}`

const segmentStoreSchema = `{
  "type": "object",
  "description": "Segment store LSM tuning.",
  "properties": {
    "dir": { "type": "string" },
    "l0-bytes": { "type": "integer", "minimum": 1 },
    "max-l0-segments": { "type": "integer", "minimum": 1 },
    "level-size-ratio": { "type": "integer", "minimum": 2 },
    "compaction-interval": { "type": "string" },
    "compaction-rate-per-sec": { "type": "number", "minimum": 0 }
  },
  "required": ["dir"]
}`

const featurizerSchema = `{
  "type": "object",
  "description": "Segment featurizer rule set.",
  "properties": {
    "dim": { "type": "integer", "minimum": 8, "maximum": 32 },
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "window-seconds": { "type": "integer", "minimum": 1 },
          "min-visits": { "type": "integer", "minimum": 1 }
        },
        "required": ["window-seconds", "min-visits"]
      }
    }
  },
  "required": ["dim", "rules"]
}`
