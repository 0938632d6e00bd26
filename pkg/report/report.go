// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report defines the callback-based error/warning reporting contract
// used throughout the learner and segment store instead of a global mutable
// callback singleton: every long-running operation takes a Sink explicitly
// and reports through it.
package report

import "github.com/yoori/vanga-go/pkg/vlog"

// Severity classifies how serious a reported Event is.
type Severity int

const (
	Warning Severity = iota
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Code enumerates the error kinds from spec §7.
type Code string

const (
	CodeParseError      Code = "parse_error"
	CodeNumerical       Code = "numerical"
	CodeIO              Code = "io"
	CodeOverflow        Code = "overflow"
	CodeNotActive       Code = "not_active"
	CodeInvalidArgument Code = "invalid_argument"
	CodeCancelled       Code = "cancelled"
)

// Event is one reportable occurrence.
type Event struct {
	Severity    Severity
	Code        Code
	Description string
	Err         error
}

// Sink receives Events. Implementations must be safe for concurrent use —
// worker tasks in the task pool report directly, without routing through
// the dispatching learner goroutine.
type Sink interface {
	Report(Event)
}

// Multi fans one Event out to several sinks.
type Multi []Sink

func (m Multi) Report(e Event) {
	for _, s := range m {
		s.Report(e)
	}
}

// Discard drops every event. Useful in tests that don't care about
// diagnostics.
type Discard struct{}

func (Discard) Report(Event) {}

// LogSink writes events through pkg/vlog at the level matching Severity.
type LogSink struct{}

func (LogSink) Report(e Event) {
	msg := e.Description
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	switch e.Severity {
	case Warning:
		vlog.Warnf("[%s] %s", e.Code, msg)
	case Error:
		vlog.Errorf("[%s] %s", e.Code, msg)
	case Critical:
		vlog.Critf("[%s] %s", e.Code, msg)
	default:
		vlog.Infof("[%s] %s", e.Code, msg)
	}
}
