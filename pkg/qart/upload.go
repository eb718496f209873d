package qart

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quatton/qsite/pkg/qerr"
	"github.com/quatton/qsite/pkg/qlog"
)

// Sink receives one create-or-update per record.
type Sink interface {
	Put(ctx context.Context, rec Record) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, rec Record) error

func (f SinkFunc) Put(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// Options tunes Upload.
type Options struct {
	// Concurrency bounds in-flight Puts. Values below 1 mean sequential.
	Concurrency int
	Log         *qlog.Logger
}

// Upload dispatches every record to sink. Sibling uploads are independent
// and may run concurrently; the first failure cancels the rest and is
// returned as an upload_failure naming the source file.
func Upload(ctx context.Context, records []Record, sink Sink, opts Options) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.Key]; dup {
			return qerr.WithSubject(qerr.CodeUploadFailure, r.SourcePath, fmt.Errorf("%w: %s", ErrDuplicateID, r.Key))
		}
		seen[r.Key] = struct{}{}
	}

	log := opts.Log.OrDiscard()
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := sink.Put(gctx, rec); err != nil {
				return qerr.WithSubject(qerr.CodeUploadFailure, rec.SourcePath, err)
			}
			log.Debug("Uploaded object", "key", rec.Key, "content_type", rec.ContentType)
			return nil
		})
	}
	return g.Wait()
}

// UploadTree plans baseDir and uploads the result.
func UploadTree(ctx context.Context, baseDir string, sink Sink, opts Options) ([]Record, error) {
	records, err := Plan(baseDir)
	if err != nil {
		return nil, qerr.WithSubject(qerr.CodeUploadFailure, baseDir, err)
	}
	if err := Upload(ctx, records, sink, opts); err != nil {
		return nil, err
	}
	return records, nil
}

// DirPrefix normalizes a key prefix to a directory: a non-empty prefix
// always ends in "/", so "app" never matches "app-v2/...".
func DirPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// StoreSink uploads records straight to a Store, optionally under a key
// prefix directory.
type StoreSink struct {
	Store    Store
	Prefix   string
	Metadata map[string]string
}

func (s StoreSink) Put(ctx context.Context, rec Record) error {
	f, err := os.Open(rec.SourcePath)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = s.Store.Upload(ctx, DirPrefix(s.Prefix)+rec.Key, f, stat.Size(), rec.ContentType, s.Metadata)
	return err
}

// Prune deletes objects under prefix whose key is not in records, so files
// dropped from the bundle stop being served. It returns the deleted keys.
func Prune(ctx context.Context, store Store, prefix string, records []Record) ([]string, error) {
	prefix = DirPrefix(prefix)
	remote, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	keep := Keys(records)
	var deleted []string
	for _, obj := range remote {
		if _, ok := keep[strings.TrimPrefix(obj.Key, prefix)]; ok {
			continue
		}
		if err := store.Delete(ctx, obj.Key); err != nil && err != ErrNotFound {
			return deleted, qerr.WithSubject(qerr.CodeUploadFailure, obj.Key, err)
		}
		deleted = append(deleted, obj.Key)
	}
	return deleted, nil
}
