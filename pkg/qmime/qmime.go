// Package qmime maps file names to the Content-Type they are served with.
package qmime

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	// ScriptType is forced for script sources; browsers refuse module
	// scripts served with anything else.
	ScriptType = "text/javascript"
	// FallbackType is used when the table has no entry.
	FallbackType = "application/octet-stream"
)

var scriptExts = map[string]bool{
	".js":  true,
	".ts":  true,
	".tsx": true,
}

// Lookup returns the generic MIME type for an extension (with leading dot),
// or "" when unknown.
type Lookup func(ext string) string

// StdLookup uses the standard library's extension table.
func StdLookup(ext string) string {
	return mime.TypeByExtension(ext)
}

// Classifier is a total filename -> Content-Type mapping.
type Classifier struct {
	lookup Lookup
}

// New returns a Classifier over the given table. A nil lookup uses StdLookup.
func New(lookup Lookup) *Classifier {
	if lookup == nil {
		lookup = StdLookup
	}
	return &Classifier{lookup: lookup}
}

// Classify returns the Content-Type for filename.
func (c *Classifier) Classify(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if scriptExts[ext] {
		return ScriptType
	}
	if ext == "" {
		return FallbackType
	}
	t := c.lookup(ext)
	if t == "" {
		return FallbackType
	}
	// Drop parameters: "text/html; charset=utf-8" -> "text/html".
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

var defaultClassifier = New(nil)

// Classify uses the default classifier.
func Classify(filename string) string {
	return defaultClassifier.Classify(filename)
}
