// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yoori/vanga-go/internal/wire"
)

const treeMagic = "VANGA-TREE 1"

// Save writes the magic line followed by one pre-order line per tree
// (spec.md §6.1).
func Save(w io.Writer, trees []Node) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, treeMagic); err != nil {
		return err
	}
	for _, t := range trees {
		var sb strings.Builder
		writeNode(&sb, &t)
		if _, err := fmt.Fprintln(bw, sb.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeNode(sb *strings.Builder, n *Node) {
	if !n.isSplit {
		sb.WriteString("d ")
		sb.WriteString(wire.FormatFloat(n.delta))
		return
	}
	sb.WriteString("s ")
	sb.WriteString(strconv.FormatUint(uint64(n.featureID), 10))
	sb.WriteByte(' ')
	writeNode(sb, n.yes)
	sb.WriteByte(' ')
	writeNode(sb, n.no)
}

// Load reads a tree file, validating the magic line, and returns every tree
// it contains in file order (spec.md §6.1).
func Load(r io.Reader) ([]Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return nil, fmt.Errorf("tree: empty file, expected magic line %q", treeMagic)
	}
	if strings.TrimSpace(scanner.Text()) != treeMagic {
		return nil, fmt.Errorf("tree: bad magic line %q, expected %q", scanner.Text(), treeMagic)
	}
	var trees []Node
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		toks := strings.Fields(line)
		n, rest, err := parseNode(toks)
		if err != nil {
			return nil, err
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("tree: trailing tokens after tree: %v", rest)
		}
		trees = append(trees, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trees, nil
}

func parseNode(toks []string) (Node, []string, error) {
	if len(toks) == 0 {
		return Node{}, nil, fmt.Errorf("tree: unexpected end of tokens")
	}
	switch toks[0] {
	case "d":
		if len(toks) < 2 {
			return Node{}, nil, fmt.Errorf("tree: leaf missing delta")
		}
		delta, err := strconv.ParseFloat(toks[1], 64)
		if err != nil {
			return Node{}, nil, fmt.Errorf("tree: bad delta %q: %w", toks[1], err)
		}
		return NewLeaf(delta), toks[2:], nil
	case "s":
		if len(toks) < 2 {
			return Node{}, nil, fmt.Errorf("tree: split missing feature id")
		}
		fid, err := strconv.ParseUint(toks[1], 10, 32)
		if err != nil {
			return Node{}, nil, fmt.Errorf("tree: bad feature id %q: %w", toks[1], err)
		}
		yes, rest, err := parseNode(toks[2:])
		if err != nil {
			return Node{}, nil, err
		}
		no, rest, err := parseNode(rest)
		if err != nil {
			return Node{}, nil, err
		}
		return NewSplit(uint32(fid), yes, no), rest, nil
	default:
		return Node{}, nil, fmt.Errorf("tree: unknown token %q", toks[0])
	}
}
