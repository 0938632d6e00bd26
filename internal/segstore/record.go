// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// writeLevelHeader writes the 16-byte level file header: the 12-byte magic
// "VANGA-SEGLVL" plus a u32 level number (spec.md §6.2 counts the trailing
// NUL of the quoted magic as part of the 16 bytes; we pack it as 12 magic
// bytes + 4 level bytes, which lands on the same 16-byte total).
func writeLevelHeader(w io.Writer, level uint32) error {
	var buf [16]byte
	copy(buf[:12], "VANGA-SEGLVL")
	binary.BigEndian.PutUint32(buf[12:16], level)
	_, err := w.Write(buf[:])
	return err
}

func readLevelHeader(r io.Reader) (level uint32, err error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	if string(buf[:12]) != "VANGA-SEGLVL" {
		return 0, fmt.Errorf("segstore: bad level file magic %q", buf[:12])
	}
	return binary.BigEndian.Uint32(buf[12:16]), nil
}

const levelFooterSize = 8

func writeLevelFooter(w io.Writer, recordCount uint64) error {
	var buf [levelFooterSize]byte
	binary.BigEndian.PutUint64(buf[:], recordCount)
	_, err := w.Write(buf[:])
	return err
}

func readLevelFooter(r io.Reader) (uint64, error) {
	var buf [levelFooterSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// encodeRecord writes one (user_id -> profile) record per spec.md §6.2:
// key(8 bytes big-endian u64) | len(4 bytes u32) | payload.
func encodeRecord(w io.Writer, userID uint64, p Profile) error {
	payload := encodePayload(p)
	var head [12]byte
	binary.BigEndian.PutUint64(head[0:8], userID)
	binary.BigEndian.PutUint32(head[8:12], uint32(len(payload)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func encodePayload(p Profile) []byte {
	buf := make([]byte, 0, 16*len(p.Segments))
	var tmp [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf = append(buf, tmp[:n]...)
	}
	putUvarint(uint64(len(p.Segments)))
	for _, seg := range p.Segments {
		putUvarint(uint64(seg.ID))
		putUvarint(uint64(len(seg.Timestamps)))
		for _, ts := range seg.Timestamps {
			putUvarint(ts)
		}
	}
	return buf
}

// decodeRecord reads one record from a buffered reader, returning io.EOF
// when no further record follows (spec.md §6.2, §7 "ParseError: ...
// corrupted segment record").
func decodeRecord(r *bufio.Reader) (userID uint64, p Profile, err error) {
	var head [12]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, Profile{}, err
	}
	userID = binary.BigEndian.Uint64(head[0:8])
	length := binary.BigEndian.Uint32(head[8:12])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, Profile{}, fmt.Errorf("segstore: short record payload for key %d: %w", userID, err)
	}
	p, err = decodePayload(payload)
	if err != nil {
		return 0, Profile{}, fmt.Errorf("segstore: corrupt payload for key %d: %w", userID, err)
	}
	return userID, p, nil
}

func decodePayload(buf []byte) (Profile, error) {
	br := newByteReader(buf)
	nSegments, err := binary.ReadUvarint(br)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{Segments: make([]Segment, 0, nSegments)}
	for i := uint64(0); i < nSegments; i++ {
		id, err := binary.ReadUvarint(br)
		if err != nil {
			return Profile{}, err
		}
		nTs, err := binary.ReadUvarint(br)
		if err != nil {
			return Profile{}, err
		}
		ts := make([]uint64, nTs)
		for j := range ts {
			v, err := binary.ReadUvarint(br)
			if err != nil {
				return Profile{}, err
			}
			ts[j] = v
		}
		p.Segments = append(p.Segments, Segment{ID: uint32(id), Timestamps: ts})
	}
	return p, nil
}

// byteReader adapts a []byte to io.ByteReader for binary.ReadUvarint.
type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

func (r *byteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}
