// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package vlog provides a simple leveled logger shared by every package in
// this module.
//
// Time/date prefixes are off by default (callers running under systemd
// already get them from the journal); enable with SetLogDateTime(true).
//
// Uses these severity prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package vlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level orders vanga's six severities from most verbose (Debug) to least
// (Crit); SetLevel silences every level below the chosen threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarn
	LevelErr
	LevelCrit
)

var levelNames = map[string]Level{
	"debug":  LevelDebug,
	"info":   LevelInfo,
	"notice": LevelNotice,
	"warn":   LevelWarn,
	"err":    LevelErr,
	"fatal":  LevelErr,
	"crit":   LevelCrit,
}

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	NoteWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	CritWriter  io.Writer = os.Stderr
)

// counters tallies every call made to each severity, regardless of whether
// its writer is currently discarding output — a running census of how
// noisy the process has been, readable through Counts without touching the
// log stream itself.
var counters [int(LevelCrit) + 1]atomic.Int64

// Counts returns the number of calls made at each severity since process
// start (or the last call to ResetCounts), keyed by level name. Ops
// surfaces can fold this into a health or debug response without parsing
// log output.
func Counts() map[string]int64 {
	out := make(map[string]int64, len(levelNames))
	for name, lvl := range levelNames {
		if name == "fatal" {
			continue // alias of "err", already counted under it
		}
		out[name] = counters[lvl].Load()
	}
	return out
}

// ResetCounts zeroes every severity's call count. Mainly useful in tests.
func ResetCounts() {
	for i := range counters {
		counters[i].Store(0)
	}
}

type levelSink struct {
	level   Level
	writer  *io.Writer
	prefix  string
	plain   *log.Logger
	timed   *log.Logger
	flags   int
	tflags  int
}

var sinks = []*levelSink{
	{level: LevelDebug, writer: &DebugWriter, prefix: "<7>[DEBUG]    ", flags: 0, tflags: log.LstdFlags},
	{level: LevelInfo, writer: &InfoWriter, prefix: "<6>[INFO]     ", flags: 0, tflags: log.LstdFlags},
	{level: LevelNotice, writer: &NoteWriter, prefix: "<5>[NOTICE]   ", flags: log.Lshortfile, tflags: log.LstdFlags | log.Lshortfile},
	{level: LevelWarn, writer: &WarnWriter, prefix: "<4>[WARNING]  ", flags: log.Lshortfile, tflags: log.LstdFlags | log.Lshortfile},
	{level: LevelErr, writer: &ErrWriter, prefix: "<3>[ERROR]    ", flags: log.Llongfile, tflags: log.LstdFlags | log.Llongfile},
	{level: LevelCrit, writer: &CritWriter, prefix: "<2>[CRITICAL] ", flags: log.Llongfile, tflags: log.LstdFlags | log.Llongfile},
}

func init() {
	for _, s := range sinks {
		s.plain = log.New(*s.writer, s.prefix, s.flags)
		s.timed = log.New(*s.writer, s.prefix, s.tflags)
	}
}

func (s *levelSink) emit(calldepth int, out string) {
	counters[s.level].Add(1)
	if *s.writer == io.Discard {
		return
	}
	if logDateTime {
		s.timed.Output(calldepth, out)
	} else {
		s.plain.Output(calldepth, out)
	}
}

func sinkFor(lvl Level) *levelSink { return sinks[lvl] }

// SetLevel silences every severity strictly below lvl. Valid values, from
// least to most verbose: "crit", "err" (or "fatal"), "warn", "notice",
// "info", "debug". An unrecognized value falls back to "debug".
func SetLevel(lvl string) {
	threshold, ok := levelNames[lvl]
	if !ok {
		fmt.Printf("vlog: invalid loglevel %#v, using 'debug'\n", lvl)
		threshold = LevelDebug
	}
	for _, s := range sinks {
		if s.level < threshold {
			*s.writer = io.Discard
		}
	}
}

func SetLogDateTime(logdate bool) {
	logDateTime = logdate
}

func Print(v ...interface{}) { Info(v...) }

func Debug(v ...interface{}) { sinkFor(LevelDebug).emit(3, fmt.Sprint(v...)) }
func Info(v ...interface{})  { sinkFor(LevelInfo).emit(3, fmt.Sprint(v...)) }
func Note(v ...interface{})  { sinkFor(LevelNotice).emit(3, fmt.Sprint(v...)) }
func Warn(v ...interface{})  { sinkFor(LevelWarn).emit(3, fmt.Sprint(v...)) }
func Error(v ...interface{}) { sinkFor(LevelErr).emit(3, fmt.Sprint(v...)) }
func Crit(v ...interface{})  { sinkFor(LevelCrit).emit(3, fmt.Sprint(v...)) }

// Panic logs and re-panics; the caller's goroutine dies but the process
// keeps serving other goroutines unless unrecovered at the top.
func Panic(v ...interface{}) {
	Error(v...)
	panic("vlog: panic triggered")
}

// Fatal logs and exits the process. Never call from a worker goroutine in
// the task pool — only from the learner/store's owning goroutine.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Printf(format string, v ...interface{}) { Infof(format, v...) }

func Debugf(format string, v ...interface{}) { sinkFor(LevelDebug).emit(3, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { sinkFor(LevelInfo).emit(3, fmt.Sprintf(format, v...)) }
func Notef(format string, v ...interface{})  { sinkFor(LevelNotice).emit(3, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { sinkFor(LevelWarn).emit(3, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { sinkFor(LevelErr).emit(3, fmt.Sprintf(format, v...)) }
func Critf(format string, v ...interface{})  { sinkFor(LevelCrit).emit(3, fmt.Sprintf(format, v...)) }

func Panicf(format string, v ...interface{}) {
	Errorf(format, v...)
	panic("vlog: panic triggered")
}

func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
