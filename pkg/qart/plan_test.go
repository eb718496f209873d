package qart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/qsite/pkg/qmime"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("content of "+f), 0o644))
	}
}

func keysOf(records []Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Key)
	}
	return out
}

func TestPlan_SiteBundle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html", "assets/app.js", "assets/app.css")

	records, err := Plan(root)
	require.NoError(t, err)
	require.Len(t, records, 3)

	got := map[string]string{}
	for _, r := range records {
		got[r.Key] = r.ContentType
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(r.Key)), r.SourcePath)
		assert.Equal(t, int64(len("content of "+r.Key)), r.Size)
	}
	assert.Equal(t, map[string]string{
		"index.html":     "text/html",
		"assets/app.js":  qmime.ScriptType,
		"assets/app.css": "text/css",
	}, got)
}

func TestPlan_FlatAndDeep(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{"flat", []string{"a.txt", "b.txt", "c.txt"}},
		{"deep", []string{"a/b/c/d/e/f.txt", "a/b/g.txt", "a/h.txt", "i.txt"}},
		{"single", []string{"only.html"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files...)

			records, err := Plan(root)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.files, keysOf(records))
			assert.Len(t, Keys(records), len(tt.files), "keys are unique")
		})
	}
}

func TestPlan_DirectoriesContributeNothing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o755))

	records, err := Plan(root)
	require.NoError(t, err)
	assert.Empty(t, records)

	writeTree(t, root, "empty/nested/file.txt")
	records, err = Plan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty/nested/file.txt"}, keysOf(records))
}

func TestPlan_IsSortedAndRepeatable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "z.txt", "m/b.js", "m/a.css", "a.html")

	first, err := Plan(root)
	require.NoError(t, err)
	second, err := Plan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.html", "m/a.css", "m/b.js", "z.txt"}, keysOf(first))
	assert.Equal(t, first, second, "an unchanged tree plans identically")
}

func TestPlan_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, "real.txt", "dir/inner.txt")
	writeTree(t, root, "index.html")

	if err := os.Symlink(filepath.Join(outside, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "dir"), filepath.Join(root, "linkdir")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "missing"), filepath.Join(root, "dangling")))

	records, err := Plan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "link.txt"}, keysOf(records))
}

func TestPlan_Errors(t *testing.T) {
	root := t.TempDir()
	_, err := Plan(filepath.Join(root, "missing"))
	assert.Error(t, err)

	writeTree(t, root, "file.txt")
	_, err = Plan(filepath.Join(root, "file.txt"))
	assert.ErrorIs(t, err, ErrNotBaseDir)
}

func TestPlanWith_CustomClassifier(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.bin")

	records, err := PlanWith(root, func(string) string { return "x/custom" })
	require.NoError(t, err)
	assert.Equal(t, "x/custom", records[0].ContentType)
}
