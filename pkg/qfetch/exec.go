package qfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command is a single registry tool invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Executor runs a Command and returns its combined stdout/stderr.
type Executor interface {
	Run(ctx context.Context, cmd Command) (output []byte, exitCode int, err error)
}

// OSExecutor runs commands as child processes.
type OSExecutor struct {
	Env map[string]string // extra environment on top of os.Environ()
}

// Run executes cmd. The child is detached from ctx cancellation: a registry
// invocation is allowed to finish or fail on its own, never killed halfway.
func (e OSExecutor) Run(ctx context.Context, cmd Command) ([]byte, int, error) {
	c := exec.CommandContext(context.WithoutCancel(ctx), cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	c.Env = os.Environ()
	for k, v := range e.Env {
		c.Env = append(c.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	err := c.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), exitErr.ExitCode(), err
		}
		// failed to start (binary missing, bad dir, ...)
		return out.Bytes(), -1, err
	}
	return out.Bytes(), 0, nil
}

var _ Executor = OSExecutor{}
