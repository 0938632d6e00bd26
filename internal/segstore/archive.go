// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yoori/vanga-go/pkg/report"
	"github.com/yoori/vanga-go/pkg/vlog"
)

// ArchiveConfig configures the optional cold-storage tier: compacted level
// files older than Retention are uploaded to Bucket and removed from local
// disk, the same "cleanup worker" role the teacher's checkpoint archiver
// plays, generalized from a local zip directory to an object store.
type ArchiveConfig struct {
	Bucket    string
	Prefix    string
	Retention time.Duration
}

// Archiver uploads aged-out level files to S3 and deletes the local copy
// once the upload is confirmed.
type Archiver struct {
	cfg    ArchiveConfig
	client *s3.Client
	sink   report.Sink
}

// NewArchiver loads AWS credentials/region from the environment and shared
// config files the way every aws-sdk-go-v2 CLI/daemon does.
func NewArchiver(ctx context.Context, cfg ArchiveConfig, sink report.Sink) (*Archiver, error) {
	if sink == nil {
		sink = report.Discard{}
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("segstore: load AWS config: %w", err)
	}
	return &Archiver{cfg: cfg, client: s3.NewFromConfig(awsCfg), sink: sink}, nil
}

// Sweep uploads every level file under dir whose modification time is older
// than cfg.Retention, then removes the local file once the upload succeeds.
// It returns the number of files archived.
func (a *Archiver) Sweep(ctx context.Context, dir string) (int, error) {
	if a.cfg.Bucket == "" {
		return 0, nil
	}
	cutoff := time.Now().Add(-a.cfg.Retention)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("segstore: archive sweep: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := a.uploadAndRemove(ctx, path, e.Name()); err != nil {
			a.sink.Report(report.Event{Severity: report.Error, Code: report.CodeIO, Description: "segstore: archiving " + path, Err: err})
			continue
		}
		n++
	}
	return n, nil
}

func (a *Archiver) uploadAndRemove(ctx context.Context, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	key := name
	if a.cfg.Prefix != "" {
		key = filepath.ToSlash(filepath.Join(a.cfg.Prefix, name))
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("upload to s3://%s/%s: %w", a.cfg.Bucket, key, err)
	}
	if closeErr != nil {
		return closeErr
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove archived local file: %w", err)
	}
	vlog.Infof("segstore: archived %s to s3://%s/%s", path, a.cfg.Bucket, key)
	return nil
}
