package qmime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ScriptOverride(t *testing.T) {
	tables := map[string]Lookup{
		"std":   StdLookup,
		"empty": func(string) string { return "" },
		"wrong": func(string) string { return "video/mp2t" },
	}
	for name, table := range tables {
		c := New(table)
		for _, f := range []string{"app.js", "main.ts", "App.tsx", "assets/chunk-1.JS", "a/b/c/index.ts"} {
			assert.Equal(t, ScriptType, c.Classify(f), "table=%s file=%s", name, f)
		}
	}
}

func TestClassify_TableAnswer(t *testing.T) {
	table := func(ext string) string {
		switch ext {
		case ".css":
			return "text/css; charset=utf-8"
		case ".png":
			return "image/png"
		case ".weird":
			return "application/x-weird"
		}
		return ""
	}
	c := New(table)

	assert.Equal(t, "text/css", c.Classify("assets/app.css"))
	assert.Equal(t, "image/png", c.Classify("logo.png"))
	assert.Equal(t, "application/x-weird", c.Classify("thing.weird"))
	assert.Equal(t, FallbackType, c.Classify("data.unknownext"))
	assert.Equal(t, FallbackType, c.Classify("LICENSE"))
}

func TestClassify_Defaults(t *testing.T) {
	assert.Equal(t, "text/html", Classify("index.html"))
	assert.Equal(t, "text/css", Classify("assets/app.css"))
	assert.Equal(t, ScriptType, Classify("assets/app.js"))
	assert.Equal(t, "image/png", Classify("favicon.png"))
	assert.Equal(t, "application/json", Classify("manifest.json"))
	assert.Equal(t, FallbackType, Classify("blob.qsite-unknown"))
}

func TestClassify_NotFooledByNames(t *testing.T) {
	// only the extension counts
	assert.Equal(t, FallbackType, New(func(string) string { return "" }).Classify("js"))
	assert.Equal(t, "text/html", Classify("app.js.html"))
}
