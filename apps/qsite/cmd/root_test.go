package cmd

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/qsite/pkg/qconfig"
)

func TestApplyFlags(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := qconfig.LoadConfig("")
	require.NoError(t, err)

	c := &cobra.Command{Use: "test"}
	c.Flags().String("bucket", "", "")
	c.Flags().String("stack", "", "")
	c.Flags().Int("concurrency", 0, "")
	c.Flags().Bool("keep-stale", false, "")
	require.NoError(t, c.Flags().Parse([]string{"--bucket", "web-bucket", "--concurrency", "3", "--keep-stale"}))

	require.NoError(t, applyFlags(c, cfg))
	assert.Equal(t, "web-bucket", cfg.BucketName)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.True(t, cfg.KeepStale)
	assert.Equal(t, "dev", cfg.Stack, "unchanged flags keep config values")
}

func TestSiteArgs(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	cfg, err := qconfig.LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Set(qconfig.BucketNameKey, "web-bucket"))

	app := &App{Config: cfg, Env: &qconfig.Env{}}
	args, err := app.SiteArgs()
	require.NoError(t, err)
	assert.Equal(t, "web-bucket", args.BucketName)
	assert.NotEmpty(t, args.Workspace.Root)
	assert.NotNil(t, args.Fetcher)
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"up", "preview", "destroy", "refresh", "outputs", "fetch", "plan", "sync"}
	got := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing command %q", name)
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
