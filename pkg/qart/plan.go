package qart

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/quatton/qsite/pkg/qmime"
)

// Record is one file to upload. Key is the path relative to the planned base
// directory, always '/'-separated.
type Record struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SourcePath  string `json:"source_path"`
	Size        int64  `json:"size"`
}

// Plan walks baseDir and returns one Record per regular file, sorted by key.
// Content types come from qmime.Classify.
func Plan(baseDir string) ([]Record, error) {
	return PlanWith(baseDir, qmime.Classify)
}

// PlanWith is Plan with a custom classifier.
func PlanWith(baseDir string, classify func(name string) string) ([]Record, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("planning uploads: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("planning uploads from %s: %w", baseDir, ErrNotBaseDir)
	}

	var records []Record
	stack := []string{baseDir}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}

		for _, e := range entries {
			path := filepath.Join(dir, e.Name())

			var size int64
			switch {
			case e.IsDir():
				stack = append(stack, path)
				continue
			case e.Type().IsRegular():
				fi, err := e.Info()
				if err != nil {
					return nil, fmt.Errorf("stat %s: %w", path, err)
				}
				size = fi.Size()
			case e.Type()&fs.ModeSymlink != 0:
				// Follow links to files only; linked directories are not walked.
				fi, err := os.Stat(path)
				if err != nil || !fi.Mode().IsRegular() {
					continue
				}
				size = fi.Size()
			default:
				continue
			}

			rel, err := filepath.Rel(baseDir, path)
			if err != nil {
				return nil, fmt.Errorf("relativizing %s: %w", path, err)
			}
			records = append(records, Record{
				Key:         filepath.ToSlash(rel),
				ContentType: classify(e.Name()),
				SourcePath:  path,
				Size:        size,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})
	return records, nil
}

// Keys returns the set of keys in records.
func Keys(records []Record) map[string]struct{} {
	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		keys[r.Key] = struct{}{}
	}
	return keys
}
