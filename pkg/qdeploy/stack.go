package qdeploy

import (
	"context"
	"fmt"
	"io"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optpreview"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optrefresh"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Stack is the subset of engine operations the driver needs.
type Stack interface {
	Preview(ctx context.Context, progress io.Writer) (Changes, error)
	Up(ctx context.Context, progress io.Writer) (Outputs, error)
	Destroy(ctx context.Context, progress io.Writer) error
	Refresh(ctx context.Context, progress io.Writer) error
	Outputs(ctx context.Context) (Outputs, error)
}

// Changes counts planned operations by kind (create, update, delete, same).
type Changes map[string]int

// Opener selects or creates the stack that runs program.
type Opener func(ctx context.Context, opts Options, program pulumi.RunFunc) (Stack, error)

// autoStack drives a local inline-source stack through the Automation API.
type autoStack struct {
	stack auto.Stack
}

// OpenLocal upserts an inline-source stack, installs the aws plugin when a
// version is pinned, and sets the region.
func OpenLocal(ctx context.Context, opts Options, program pulumi.RunFunc) (Stack, error) {
	var wsOpts []auto.LocalWorkspaceOption
	if env := opts.envVars(); len(env) > 0 {
		wsOpts = append(wsOpts, auto.EnvVars(env))
	}

	s, err := auto.UpsertStackInlineSource(ctx, opts.Stack, opts.Project, program, wsOpts...)
	if err != nil {
		return nil, fmt.Errorf("selecting stack %s/%s: %w", opts.Project, opts.Stack, err)
	}

	if opts.PluginVersion != "" {
		if err := s.Workspace().InstallPlugin(ctx, "aws", opts.PluginVersion); err != nil {
			return nil, fmt.Errorf("installing aws plugin %s: %w", opts.PluginVersion, err)
		}
	}
	if err := s.SetConfig(ctx, "aws:region", auto.ConfigValue{Value: opts.Region}); err != nil {
		return nil, fmt.Errorf("setting aws:region: %w", err)
	}
	return &autoStack{stack: s}, nil
}

func (a *autoStack) Preview(ctx context.Context, progress io.Writer) (Changes, error) {
	res, err := a.stack.Preview(ctx, optpreview.ProgressStreams(progress))
	if err != nil {
		return nil, err
	}
	changes := Changes{}
	for op, n := range res.ChangeSummary {
		changes[string(op)] = n
	}
	return changes, nil
}

func (a *autoStack) Up(ctx context.Context, progress io.Writer) (Outputs, error) {
	res, err := a.stack.Up(ctx, optup.ProgressStreams(progress))
	if err != nil {
		return Outputs{}, err
	}
	return outputsFrom(res.Outputs), nil
}

func (a *autoStack) Destroy(ctx context.Context, progress io.Writer) error {
	_, err := a.stack.Destroy(ctx, optdestroy.ProgressStreams(progress))
	return err
}

func (a *autoStack) Refresh(ctx context.Context, progress io.Writer) error {
	_, err := a.stack.Refresh(ctx, optrefresh.ProgressStreams(progress))
	return err
}

func (a *autoStack) Outputs(ctx context.Context) (Outputs, error) {
	out, err := a.stack.Outputs(ctx)
	if err != nil {
		return Outputs{}, err
	}
	return outputsFrom(out), nil
}

var _ Stack = (*autoStack)(nil)
