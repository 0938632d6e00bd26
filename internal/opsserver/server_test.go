// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opsserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoori/vanga-go/internal/segstore"
)

type fakeLookup struct {
	profiles map[uint64]segstore.Profile
	err      error
}

func (f *fakeLookup) Get(userID uint64) (segstore.Profile, bool, error) {
	if f.err != nil {
		return segstore.Profile{}, false, f.err
	}
	p, ok := f.profiles[userID]
	return p, ok, nil
}

func TestHandleHealthzReturnsOK(t *testing.T) {
	s := New(":0", &fakeLookup{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()

	s.routes().ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "ok", rw.Body.String())
}

func TestHandleProfileReturnsStoredProfile(t *testing.T) {
	lookup := &fakeLookup{profiles: map[uint64]segstore.Profile{
		42: {Segments: []segstore.Segment{{ID: 1, Timestamps: []uint64{10}}}},
	}}
	s := New(":0", lookup)
	req := httptest.NewRequest(http.MethodGet, "/v1/profile/42", nil)
	rw := httptest.NewRecorder()

	s.routes().ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)

	var got segstore.Profile
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	assert.Equal(t, lookup.profiles[42], got)
}

func TestHandleProfileReturnsNotFoundForUnknownUser(t *testing.T) {
	s := New(":0", &fakeLookup{profiles: map[uint64]segstore.Profile{}})
	req := httptest.NewRequest(http.MethodGet, "/v1/profile/1", nil)
	rw := httptest.NewRecorder()

	s.routes().ServeHTTP(rw, req)
	assert.Equal(t, http.StatusNotFound, rw.Code)
}

func TestHandleProfileReturnsInternalErrorOnStoreFailure(t *testing.T) {
	s := New(":0", &fakeLookup{err: errors.New("disk on fire")})
	req := httptest.NewRequest(http.MethodGet, "/v1/profile/1", nil)
	rw := httptest.NewRecorder()

	s.routes().ServeHTTP(rw, req)
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestRoutesRejectNonNumericUserID(t *testing.T) {
	s := New(":0", &fakeLookup{})
	req := httptest.NewRequest(http.MethodGet, "/v1/profile/not-a-number", nil)
	rw := httptest.NewRecorder()

	s.routes().ServeHTTP(rw, req)
	assert.Equal(t, http.StatusNotFound, rw.Code, "mux's numeric route constraint rejects the path entirely")
}

func TestShutdownWithoutListenAndServeIsNoOp(t *testing.T) {
	s := New(":0", &fakeLookup{})
	assert.NoError(t, s.Shutdown())
}
