// Package qdeploy runs the site program against a real stack and guards
// mutating operations with the deployment lock.
package qdeploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"

	"github.com/quatton/qsite/pkg/kv"
	"github.com/quatton/qsite/pkg/qerr"
	"github.com/quatton/qsite/pkg/qlog"
	"github.com/quatton/qsite/pkg/qsite"
)

// Options configures a Driver.
type Options struct {
	Project string
	Stack   string
	Region  string
	Site    qsite.Args

	// BackendURL is handed to the workspace as PULUMI_BACKEND_URL.
	BackendURL string
	// PluginVersion pins the aws plugin to install; empty skips installation.
	PluginVersion string

	// Lock serializes Up, Destroy and Refresh across processes when set.
	Lock    kv.Store
	LockTTL time.Duration

	Progress io.Writer
	Log      *qlog.Logger
}

func (o Options) envVars() map[string]string {
	env := map[string]string{}
	if o.BackendURL != "" {
		env["PULUMI_BACKEND_URL"] = o.BackendURL
	}
	return env
}

func (o Options) validate() error {
	var errs []error
	if o.Project == "" {
		errs = append(errs, errors.New("project is required"))
	}
	if o.Stack == "" {
		errs = append(errs, errors.New("stack is required"))
	}
	if o.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	return qerr.New(qerr.CodeConfigInvalid, errors.Join(errs...))
}

// Outputs are the exported stack outputs.
type Outputs struct {
	BucketName    string
	CloudfrontURL string
}

func outputsFrom(m auto.OutputMap) Outputs {
	str := func(key string) string {
		v, ok := m[key]
		if !ok {
			return ""
		}
		s, _ := v.Value.(string)
		return s
	}
	return Outputs{
		BucketName:    str(qsite.OutputBucketName),
		CloudfrontURL: str(qsite.OutputCloudfrontURL),
	}
}

// Driver runs stack operations for one project/stack.
type Driver struct {
	opts Options
	open Opener
	log  *qlog.Logger
}

// New returns a Driver that opens stacks with OpenLocal.
func New(opts Options) (*Driver, error) {
	return NewWithOpener(opts, OpenLocal)
}

// NewWithOpener returns a Driver that opens stacks with open.
func NewWithOpener(opts Options, open Opener) (*Driver, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = kv.DefaultLockTTL
	}
	log := opts.Log.OrDiscard().With("stack", opts.Project+"/"+opts.Stack)
	return &Driver{opts: opts, open: open, log: log}, nil
}

func (d *Driver) stack(ctx context.Context) (Stack, error) {
	s, err := d.open(ctx, d.opts, qsite.Program(d.opts.Site))
	if err != nil {
		return nil, qerr.New(qerr.CodeProvisioningFailure, err)
	}
	return s, nil
}

// locked runs fn while holding the stack lock, if one is configured.
func (d *Driver) locked(ctx context.Context, op string, fn func(Stack) error) error {
	if d.opts.Lock != nil {
		lease, err := kv.Acquire(ctx, d.opts.Lock, kv.LockKey(d.opts.Project, d.opts.Stack), d.opts.LockTTL)
		if err != nil {
			return err
		}
		d.log.Debug("Acquired deployment lock", "op", op, "token", lease.Token())
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				d.log.Warn("Failed to release deployment lock", "error", err)
			}
		}()
	}

	s, err := d.stack(ctx)
	if err != nil {
		return err
	}
	return fn(s)
}

// Preview reports the planned changes without applying them.
func (d *Driver) Preview(ctx context.Context) (Changes, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Info("Previewing changes...")
	changes, err := s.Preview(ctx, d.opts.Progress)
	if err != nil {
		return nil, wrapEngine(err)
	}
	return changes, nil
}

// Up provisions the site and returns its outputs.
func (d *Driver) Up(ctx context.Context) (Outputs, error) {
	var out Outputs
	err := d.locked(ctx, "up", func(s Stack) error {
		d.log.Info("Deploying site...")
		var err error
		out, err = s.Up(ctx, d.opts.Progress)
		return err
	})
	if err != nil {
		return Outputs{}, wrapEngine(err)
	}
	d.log.Info("Site deployed", "bucket", out.BucketName, "url", out.CloudfrontURL)
	return out, nil
}

// Destroy removes every resource the stack owns.
func (d *Driver) Destroy(ctx context.Context) error {
	err := d.locked(ctx, "destroy", func(s Stack) error {
		d.log.Info("Destroying site...")
		return s.Destroy(ctx, d.opts.Progress)
	})
	return wrapEngine(err)
}

// Refresh reconciles recorded state with the cloud.
func (d *Driver) Refresh(ctx context.Context) error {
	err := d.locked(ctx, "refresh", func(s Stack) error {
		d.log.Info("Refreshing stack state...")
		return s.Refresh(ctx, d.opts.Progress)
	})
	return wrapEngine(err)
}

// Outputs reads the current stack outputs.
func (d *Driver) Outputs(ctx context.Context) (Outputs, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return Outputs{}, err
	}
	out, err := s.Outputs(ctx)
	if err != nil {
		return Outputs{}, wrapEngine(err)
	}
	return out, nil
}

// wrapEngine keeps qerr classifications from the program and marks
// everything else as a provisioning failure.
func wrapEngine(err error) error {
	if err == nil {
		return nil
	}
	var qe *qerr.Error
	if errors.As(err, &qe) {
		return err
	}
	if auto.IsConcurrentUpdateError(err) {
		return qerr.New(qerr.CodeDeploymentLocked, fmt.Errorf("another update is in progress: %w", err))
	}
	return qerr.New(qerr.CodeProvisioningFailure, err)
}
