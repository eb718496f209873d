// Package qfetch materializes a component's build artifacts on local disk by
// driving the registry CLI (bit).
package qfetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quatton/qsite/pkg/qcomp"
	"github.com/quatton/qsite/pkg/qerr"
	"github.com/quatton/qsite/pkg/qlog"
)

const (
	DefaultBinary = "bit"
	DefaultAspect = "teambit.harmony/application"
)

// Files whose presence means the directory is already a bit workspace.
var workspaceMarkers = []string{".bitmap", "workspace.jsonc"}

// Outcome classifies a single tool invocation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRecoverable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRecoverable:
		return "recoverable"
	default:
		return "fatal"
	}
}

// RecoverableKind names a failure the fetch sequence may continue past.
type RecoverableKind string

const KindAlreadyWorkspace RecoverableKind = "already_workspace"

// Result is the typed outcome of one invocation.
type Result struct {
	Command  Command
	Outcome  Outcome
	Kind     RecoverableKind // set when Outcome is OutcomeRecoverable
	Output   string          // combined stdout/stderr, verbatim
	ExitCode int
	Err      error
}

// AsError converts a fatal result into a fetch_tool_failure carrying the
// command line and the tool's own output.
func (r Result) AsError() error {
	if r.Outcome != OutcomeFatal {
		return nil
	}
	detail := strings.TrimSpace(r.Output)
	if detail == "" {
		return qerr.WithSubject(qerr.CodeFetchToolFailure, r.Command.String(), r.Err)
	}
	return qerr.WithSubject(qerr.CodeFetchToolFailure, r.Command.String(), fmt.Errorf("%w\n%s", r.Err, detail))
}

// Fetcher drives the registry tool inside a workspace directory.
type Fetcher struct {
	workDir string
	binary  string
	aspect  string
	exec    Executor
	log     *qlog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithBinary overrides the registry tool binary.
func WithBinary(binary string) Option {
	return func(f *Fetcher) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithAspect overrides the application aspect artifacts are requested for.
func WithAspect(aspect string) Option {
	return func(f *Fetcher) {
		if aspect != "" {
			f.aspect = aspect
		}
	}
}

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(f *Fetcher) {
		f.exec = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *qlog.Logger) Option {
	return func(f *Fetcher) {
		f.log = l
	}
}

// New creates a Fetcher that runs the tool in workDir.
func New(workDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		workDir: workDir,
		binary:  DefaultBinary,
		aspect:  DefaultAspect,
		exec:    OSExecutor{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.OrDiscard()
	return f
}

func (f *Fetcher) command(args ...string) Command {
	return Command{Dir: f.workDir, Name: f.binary, Args: args}
}

func (f *Fetcher) run(ctx context.Context, cmd Command) Result {
	f.log.Debug("Running registry tool", "cmd", cmd.String())
	out, code, err := f.exec.Run(ctx, cmd)
	res := Result{Command: cmd, Output: string(out), ExitCode: code, Err: err}
	if err == nil {
		res.Outcome = OutcomeOK
	} else {
		res.Outcome = OutcomeFatal
	}
	return res
}

func (f *Fetcher) isWorkspace() bool {
	for _, m := range workspaceMarkers {
		if _, err := os.Stat(filepath.Join(f.workDir, m)); err == nil {
			return true
		}
	}
	return false
}

// Init runs `bit init`. A failure caused by an existing workspace is
// downgraded to OutcomeRecoverable.
func (f *Fetcher) Init(ctx context.Context) Result {
	existed := f.isWorkspace()
	res := f.run(ctx, f.command("init"))
	if res.Outcome != OutcomeFatal {
		return res
	}
	if existed || f.isWorkspace() || strings.Contains(strings.ToLower(res.Output), "already") {
		res.Outcome = OutcomeRecoverable
		res.Kind = KindAlreadyWorkspace
	}
	return res
}

// Fetch imports ref and exports its application artifacts into destDir.
// Only the "already a workspace" init failure is tolerated; every other
// failure aborts the sequence and is returned. Nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, ref qcomp.Ref, destDir string) error {
	id := ref.ID()

	initRes := f.Init(ctx)
	switch initRes.Outcome {
	case OutcomeOK:
		f.log.Info("Created a workspace", "dir", f.workDir)
	case OutcomeRecoverable:
		f.log.Info("Already inside a workspace", "dir", f.workDir)
	default:
		return initRes.AsError()
	}

	steps := []Command{
		f.command("import", id),
		f.command("import", id, "--objects"),
		f.command("artifacts", id, "--aspect", f.aspect, "--out-dir", destDir+string(filepath.Separator)),
	}
	for _, cmd := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res := f.run(ctx, cmd); res.Outcome == OutcomeFatal {
			return res.AsError()
		}
	}

	f.log.Info("Downloaded artifacts", "component", id, "dir", destDir)
	return nil
}

// VerifyArtifacts checks that dir exists, is a directory and is not empty.
func VerifyArtifacts(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return qerr.WithSubject(qerr.CodeFetchToolFailure, dir, fmt.Errorf("artifacts directory missing after fetch: %w", err))
	}
	if len(entries) == 0 {
		return qerr.WithSubject(qerr.CodeFetchToolFailure, dir, fmt.Errorf("artifacts directory is empty"))
	}
	return nil
}
