package qfetch

import (
	"context"
	"strings"
	"testing"
)

func TestOSExecutor_CapturesOutput(t *testing.T) {
	dir := t.TempDir()
	out, code, err := OSExecutor{Env: map[string]string{"QSITE_TEST": "hello"}}.Run(context.Background(), Command{
		Dir:  dir,
		Name: "sh",
		Args: []string{"-c", "echo $QSITE_TEST; echo oops >&2; pwd"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
	s := string(out)
	if !strings.Contains(s, "hello") || !strings.Contains(s, "oops") {
		t.Errorf("Expected stdout and stderr to be captured, got %q", s)
	}
}

func TestOSExecutor_ExitCode(t *testing.T) {
	_, code, err := OSExecutor{}.Run(context.Background(), Command{
		Dir:  t.TempDir(),
		Name: "sh",
		Args: []string{"-c", "exit 3"},
	})
	if err == nil {
		t.Fatal("Expected an error for a non-zero exit")
	}
	if code != 3 {
		t.Errorf("Expected exit code 3, got %d", code)
	}
}

func TestOSExecutor_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _, err := OSExecutor{}.Run(ctx, Command{
		Dir:  t.TempDir(),
		Name: "sh",
		Args: []string{"-c", "echo done"},
	})
	if err != nil {
		t.Fatalf("a started invocation should run to completion, got %v", err)
	}
	if !strings.Contains(string(out), "done") {
		t.Errorf("Expected output, got %q", out)
	}
}

func TestOSExecutor_MissingBinary(t *testing.T) {
	_, code, err := OSExecutor{}.Run(context.Background(), Command{
		Dir:  t.TempDir(),
		Name: "qsite-no-such-binary",
	})
	if err == nil {
		t.Fatal("Expected an error for a missing binary")
	}
	if code != -1 {
		t.Errorf("Expected exit code -1, got %d", code)
	}
}
